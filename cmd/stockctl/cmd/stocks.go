package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	domain "github.com/wonny/stockmarket/internal/domain/stock"
	"github.com/wonny/stockmarket/internal/infra/database"
	"github.com/wonny/stockmarket/internal/service/stock"
)

func newStocksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stocks",
		Short: "Manage the stock catalogue",
		Long: `Manage the stock catalogue through the configured storage backend (DB_PROVIDER).

Examples:
  go run ./cmd/stockctl stocks list TS
  go run ./cmd/stockctl stocks add --code TSC --name "Taiwan Semiconductor" --price 84 --exchange NYSE
  go run ./cmd/stockctl stocks price TSC 76
  go run ./cmd/stockctl stocks favorite TSC true`,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list [filter]",
			Short: "List stocks whose code contains filter",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				filter := ""
				if len(args) == 1 {
					filter = args[0]
				}
				return a.withService(cmd.Context(), func(ctx context.Context, svc *stock.Service) error {
					stocks, err := svc.GetStocks(ctx, filter)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), stocks)
				})
			},
		},
		&cobra.Command{
			Use:   "get CODE",
			Short: "Show one stock",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withService(cmd.Context(), func(ctx context.Context, svc *stock.Service) error {
					s, err := svc.GetStock(ctx, args[0])
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), s)
				})
			},
		},
		newWriteCmd(a, "add", "Add a new stock", func(ctx context.Context, svc *stock.Service, s domain.Stock) error {
			return svc.AddStock(ctx, s)
		}),
		newWriteCmd(a, "update", "Replace every field of an existing stock", func(ctx context.Context, svc *stock.Service, s domain.Stock) error {
			return svc.UpdateStock(ctx, s)
		}),
		&cobra.Command{
			Use:   "delete CODE",
			Short: "Delete a stock",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withService(cmd.Context(), func(ctx context.Context, svc *stock.Service) error {
					if err := svc.DeleteStock(ctx, args[0]); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "price CODE PRICE",
			Short: "Set a new price, keeping the current one as previous price",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				price, err := decimal.NewFromString(args[1])
				if err != nil {
					return fmt.Errorf("invalid price %q: %w", args[1], err)
				}
				return a.withService(cmd.Context(), func(ctx context.Context, svc *stock.Service) error {
					s, err := svc.PatchPrice(ctx, domain.PriceUpdate{Code: args[0], Price: price})
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), s)
				})
			},
		},
		&cobra.Command{
			Use:   "favorite CODE true|false",
			Short: "Mark or unmark a stock as favorite",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				favorite, err := strconv.ParseBool(args[1])
				if err != nil {
					return fmt.Errorf("invalid favorite %q: %w", args[1], err)
				}
				changes := []domain.FieldChange{{Op: domain.OpReplace, Path: "/favorite", Value: favorite}}
				return a.withService(cmd.Context(), func(ctx context.Context, svc *stock.Service) error {
					s, err := svc.PatchStock(ctx, args[0], changes)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), s)
				})
			},
		},
	)

	return cmd
}

func newWriteCmd(a *app, use, short string, write func(context.Context, *stock.Service, domain.Stock) error) *cobra.Command {
	var (
		s             domain.Stock
		price         string
		previousPrice string
	)

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if s.Price, err = decimal.NewFromString(price); err != nil {
				return fmt.Errorf("invalid --price %q: %w", price, err)
			}
			if s.PreviousPrice, err = decimal.NewFromString(previousPrice); err != nil {
				return fmt.Errorf("invalid --previous-price %q: %w", previousPrice, err)
			}

			return a.withService(cmd.Context(), func(ctx context.Context, svc *stock.Service) error {
				if err := write(ctx, svc, s); err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), s)
			})
		},
	}

	cmd.Flags().StringVar(&s.Code, "code", "", "stock code")
	cmd.Flags().StringVar(&s.Name, "name", "", "display name")
	cmd.Flags().StringVar(&price, "price", "0", "current price")
	cmd.Flags().StringVar(&previousPrice, "previous-price", "0", "previous price")
	cmd.Flags().StringVar(&s.Exchange, "exchange", "", "listing exchange")
	cmd.Flags().BoolVar(&s.Favorite, "favorite", false, "mark as favorite")

	return cmd
}

// withService opens the configured backend for one command
func (a *app) withService(ctx context.Context, fn func(context.Context, *stock.Service) error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := database.Open(ctx, a.cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	return fn(ctx, stock.NewService(store.Stocks, nil))
}
