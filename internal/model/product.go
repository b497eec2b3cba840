package model

// Product represents a catalog product. Only the pricing fields are read by checkout.
type Product struct {
	ID             int64  `json:"id" db:"id"`
	Name           string `json:"name" db:"name"`
	Price          int64  `json:"price" db:"price"`
	Discount       int    `json:"discount" db:"discount"`
	CategoryID     *int64 `json:"categoryId,omitempty" db:"category_id"`
	ManufacturerID *int64 `json:"manufacturerId,omitempty" db:"manufacturer_id"`
}

// StockBatch is one stock lot of a product.
type StockBatch struct {
	ID        int64 `json:"id" db:"id"`
	ProductID int64 `json:"productId" db:"product_id"`
	Quantity  int   `json:"quantity" db:"quantity"`
}
