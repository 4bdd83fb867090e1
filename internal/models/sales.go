package models

// SalesReport aggregates completed purchases over a date range. Amounts are
// in the currency's smallest unit, as Stripe reports them.
type SalesReport struct {
	From           string                `json:"from"`
	To             string                `json:"to"`
	TimeZone       string                `json:"time_zone"`
	TotalSales     int                   `json:"total_sales"`
	TotalAmount    int64                 `json:"total_amount"`
	SalesByProduct []ProductSalesMetrics `json:"sales_by_product"`
	DailySales     []DailySalesMetrics   `json:"daily_sales"`
}

type ProductSalesMetrics struct {
	Product string `json:"produto" bun:"product"`
	Sales   int    `json:"sales" bun:"sales"`
	Amount  int64  `json:"amount" bun:"amount"`
}

type DailySalesMetrics struct {
	Date   string `json:"date"`
	Sales  int    `json:"sales"`
	Amount int64  `json:"amount"`
}
