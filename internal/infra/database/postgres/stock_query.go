package postgres

// Statements used by StockRepository. Codes sort with the "C" collation so
// ordering is byte-wise and matches the other backends.
const (
	stockColumns = `code, name, price, previous_price, exchange, favorite`

	stockExistsQuery = `SELECT 1 FROM stocks WHERE code = $1`

	getStocksQuery = `SELECT ` + stockColumns + ` FROM stocks ORDER BY code COLLATE "C"`

	// strpos keeps the match literal and case-sensitive (LIKE would treat % and _ as wildcards)
	getStocksWhereQuery = `SELECT ` + stockColumns + ` FROM stocks WHERE strpos(code, $1) > 0 ORDER BY code COLLATE "C"`

	getStockByCodeQuery = `SELECT ` + stockColumns + ` FROM stocks WHERE code = $1`

	addStockQuery = `INSERT INTO stocks (` + stockColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`

	updateStockQuery = `UPDATE stocks SET name = $2, price = $3, previous_price = $4, exchange = $5, favorite = $6 WHERE code = $1`

	deleteStockQuery = `DELETE FROM stocks WHERE code = $1`

	createStocksTableQuery = `
		CREATE TABLE IF NOT EXISTS stocks (
			code           VARCHAR(20)    PRIMARY KEY,
			name           TEXT           NOT NULL,
			price          NUMERIC(18, 4) NOT NULL,
			previous_price NUMERIC(18, 4) NOT NULL DEFAULT 0,
			exchange       TEXT           NOT NULL,
			favorite       BOOLEAN        NOT NULL DEFAULT FALSE
		)
	`
)
