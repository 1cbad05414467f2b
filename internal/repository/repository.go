package repository

import "gorm.io/gorm"

// Repository — набор репозиториев над одним соединением.
// Кросс-сущностных транзакций здесь намеренно нет: протокол корзина/склад
// построен на упорядоченных одиночных атомарных операциях (см. service).
type Repository struct {
	DB       *gorm.DB
	Products ProductRepo
	Stock    StockRepo
	Carts    CartRepo
	Users    UserRepo
}

func New(db *gorm.DB) *Repository {
	return &Repository{
		DB:       db,
		Products: NewProductRepo(db),
		Stock:    NewStockRepo(db),
		Carts:    NewCartRepo(db),
		Users:    NewUserRepo(db),
	}
}
