package models

// Order отражает строку заказа из таблицы заказов. Таблицу редактируют менеджеры,
// сервис её только читает.
type Order struct {
	ID              string  `json:"id"`
	ChatID          string  `json:"chat_id"`
	ClientName      string  `json:"client_name"`
	Phone           string  `json:"phone"`
	CarNumber       string  `json:"car_number"`
	OrderQR         string  `json:"order_qr"`
	MonthlyPrice    float64 `json:"monthly_price"`
	TireCount       int     `json:"tire_count"`
	HasDisks        bool    `json:"has_disks"`
	StartDate       string  `json:"start_date"`
	StoragePeriod   int     `json:"storage_period"`
	EndDate         string  `json:"end_date"`
	StorageLocation string  `json:"storage_location"`
	StorageCell     string  `json:"storage_cell"`
	TotalAmount     float64 `json:"total_amount"`
	Debt            float64 `json:"debt"`
	Contract        string  `json:"contract"`
	ClientAddress   string  `json:"client_address"`
	DealStatus      string  `json:"deal_status"`
}
