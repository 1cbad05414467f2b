package service_test

import (
	"context"
	"sync"

	"cart-service/internal/models"
	"cart-service/internal/repository"

	"github.com/google/uuid"
)

// memStore — потокобезопасная модель хранилища с той же семантикой
// условных обновлений, что и у SQL-репозиториев: проверка предиката
// и запись происходят под одной блокировкой, как в одном UPDATE.
type memStore struct {
	mu sync.Mutex

	products map[uuid.UUID]models.Product
	carts    map[uuid.UUID]uuid.UUID // cartID -> userID
	cartSeq  []uuid.UUID             // порядок создания корзин
	items    map[uuid.UUID]map[uuid.UUID]int32
	order    map[uuid.UUID][]uuid.UUID // порядок строк в корзине
	users    map[uuid.UUID]models.User
}

func newMemStore() *memStore {
	return &memStore{
		products: map[uuid.UUID]models.Product{},
		carts:    map[uuid.UUID]uuid.UUID{},
		items:    map[uuid.UUID]map[uuid.UUID]int32{},
		order:    map[uuid.UUID][]uuid.UUID{},
		users:    map[uuid.UUID]models.User{},
	}
}

func newMemRepository() (*repository.Repository, *memStore) {
	st := newMemStore()
	return &repository.Repository{
		Products: &memProducts{st},
		Stock:    &memStock{st},
		Carts:    &memCarts{st},
		Users:    &memUsers{st},
	}, st
}

func (st *memStore) cartModel(cartID uuid.UUID) *models.Cart {
	userID, ok := st.carts[cartID]
	if !ok {
		return nil
	}
	c := &models.Cart{ID: cartID, UserID: userID}
	for _, pid := range st.order[cartID] {
		if qty, ok := st.items[cartID][pid]; ok {
			c.Items = append(c.Items, models.CartItem{CartID: cartID, ProductID: pid, Quantity: qty})
		}
	}
	return c
}

// --- ProductRepo ---

type memProducts struct{ st *memStore }

func (r *memProducts) Create(_ context.Context, p *models.Product) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.st.products[p.ID] = *p
	return nil
}

func (r *memProducts) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.products[id]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (r *memProducts) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.products[id]
	if !ok {
		return nil
	}
	if v, ok := fields["name"]; ok {
		p.Name = v.(string)
	}
	if v, ok := fields["description"]; ok {
		p.Description = v.(string)
	}
	if v, ok := fields["category"]; ok {
		p.Category = v.(string)
	}
	if v, ok := fields["price_cents"]; ok {
		p.PriceCents = v.(int64)
	}
	r.st.products[id] = p
	return nil
}

func (r *memProducts) List(_ context.Context, f repository.ProductListFilter) ([]models.Product, int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var list []models.Product
	for _, p := range r.st.products {
		if f.OnlyActive != nil && p.IsActive != *f.OnlyActive {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		list = append(list, p)
	}
	return list, int64(len(list)), nil
}

func (r *memProducts) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.products[id]; !ok {
		return false, nil
	}
	delete(r.st.products, id)
	return true, nil
}

// --- StockRepo ---

type memStock struct{ st *memStore }

func (r *memStock) TryReserve(_ context.Context, id uuid.UUID, qty int32) (int32, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.products[id]
	if !ok || p.StockQuantity < qty {
		return 0, false, nil
	}
	p.StockQuantity -= qty
	p.IsActive = p.StockQuantity > 0
	r.st.products[id] = p
	return p.StockQuantity, true, nil
}

func (r *memStock) Release(_ context.Context, id uuid.UUID, qty int32) (int32, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.products[id]
	if !ok {
		return 0, false, nil
	}
	p.StockQuantity += qty
	p.IsActive = p.StockQuantity > 0
	r.st.products[id] = p
	return p.StockQuantity, true, nil
}

func (r *memStock) SetStock(_ context.Context, id uuid.UUID, value int32) (int32, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.products[id]
	if !ok {
		return 0, false, nil
	}
	p.StockQuantity = value
	p.IsActive = value > 0
	r.st.products[id] = p
	return p.StockQuantity, true, nil
}

func (r *memStock) FinalizeSale(_ context.Context, id uuid.UUID, qty int32) (int32, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	p, ok := r.st.products[id]
	if !ok {
		return 0, false, nil
	}
	p.StockQuantity -= qty
	if p.StockQuantity < 0 {
		p.StockQuantity = 0
	}
	p.IsActive = p.StockQuantity > 0
	r.st.products[id] = p
	return p.StockQuantity, true, nil
}

// --- CartRepo ---

type memCarts struct{ st *memStore }

func (r *memCarts) Create(_ context.Context, c *models.Cart) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.st.carts[c.ID] = c.UserID
	r.st.cartSeq = append(r.st.cartSeq, c.ID)
	r.st.items[c.ID] = map[uuid.UUID]int32{}
	return nil
}

func (r *memCarts) GetByID(_ context.Context, id uuid.UUID) (*models.Cart, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.st.cartModel(id), nil
}

func (r *memCarts) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	_, ok := r.st.carts[id]
	return ok, nil
}

func (r *memCarts) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.carts[id]; !ok {
		return false, nil
	}
	delete(r.st.carts, id)
	delete(r.st.items, id)
	delete(r.st.order, id)
	return true, nil
}

func (r *memCarts) GetByUserID(_ context.Context, userID uuid.UUID) (*models.Cart, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, cid := range r.st.cartSeq {
		if uid, ok := r.st.carts[cid]; ok && uid == userID {
			return r.st.cartModel(cid), nil
		}
	}
	return nil, nil
}

func (r *memCarts) MergeLine(_ context.Context, cartID, productID uuid.UUID, delta int32) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	lines, ok := r.st.items[cartID]
	if !ok {
		return false, nil
	}
	if _, ok := lines[productID]; !ok {
		return false, nil
	}
	lines[productID] += delta
	return true, nil
}

func (r *memCarts) AppendLine(_ context.Context, cartID, productID uuid.UUID, qty int32) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	lines, ok := r.st.items[cartID]
	if !ok {
		return false, nil
	}
	if _, exists := lines[productID]; exists {
		// ON CONFLICT DO UPDATE: гонка merge/append вырождается в merge
		lines[productID] += qty
		return true, nil
	}
	lines[productID] = qty
	r.st.order[cartID] = append(r.st.order[cartID], productID)
	return true, nil
}

func (r *memCarts) SetLineQuantity(_ context.Context, cartID, productID uuid.UUID, qty int32) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	lines, ok := r.st.items[cartID]
	if !ok {
		return false, nil
	}
	if _, ok := lines[productID]; !ok {
		return false, nil
	}
	lines[productID] = qty
	return true, nil
}

func (r *memCarts) RemoveLine(_ context.Context, cartID, productID uuid.UUID) (int32, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	lines, ok := r.st.items[cartID]
	if !ok {
		return 0, false, nil
	}
	qty, ok := lines[productID]
	if !ok {
		return 0, false, nil
	}
	delete(lines, productID)
	return qty, true, nil
}

func (r *memCarts) Clear(_ context.Context, cartID uuid.UUID) ([]repository.RemovedLine, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	lines, ok := r.st.items[cartID]
	if !ok {
		return nil, nil
	}
	var removed []repository.RemovedLine
	for _, pid := range r.st.order[cartID] {
		if qty, ok := lines[pid]; ok {
			removed = append(removed, repository.RemovedLine{ProductID: pid, Quantity: qty})
		}
	}
	r.st.items[cartID] = map[uuid.UUID]int32{}
	r.st.order[cartID] = nil
	return removed, nil
}

func (r *memCarts) GetLine(_ context.Context, cartID, productID uuid.UUID) (int32, bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	lines, ok := r.st.items[cartID]
	if !ok {
		return 0, false, nil
	}
	qty, ok := lines[productID]
	return qty, ok, nil
}

// --- UserRepo ---

type memUsers struct{ st *memStore }

func (r *memUsers) Create(_ context.Context, u *models.User) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.st.users[u.ID] = *u
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return nil, nil
	}
	cp := u
	if u.CartID != nil {
		cid := *u.CartID
		cp.CartID = &cid
	}
	return &cp, nil
}

func (r *memUsers) GetByCartID(_ context.Context, cartID uuid.UUID) (*models.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	for _, u := range r.st.users {
		if u.CartID != nil && *u.CartID == cartID {
			cp := u
			cid := *u.CartID
			cp.CartID = &cid
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsers) List(_ context.Context, _, _ int) ([]models.User, int64, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var list []models.User
	for _, u := range r.st.users {
		list = append(list, u)
	}
	return list, int64(len(list)), nil
}

func (r *memUsers) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]any) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[id]
	if !ok {
		return nil
	}
	if v, ok := fields["name"]; ok {
		u.Name = v.(string)
	}
	if v, ok := fields["email"]; ok {
		u.Email = v.(string)
	}
	r.st.users[id] = u
	return nil
}

func (r *memUsers) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if _, ok := r.st.users[id]; !ok {
		return false, nil
	}
	delete(r.st.users, id)
	return true, nil
}

func (r *memUsers) SetCart(_ context.Context, userID, cartID uuid.UUID) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[userID]
	if !ok {
		return false, nil
	}
	cid := cartID
	u.CartID = &cid
	r.st.users[userID] = u
	return true, nil
}

func (r *memUsers) UnsetCart(_ context.Context, userID uuid.UUID) (bool, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[userID]
	if !ok {
		return false, nil
	}
	u.CartID = nil
	r.st.users[userID] = u
	return true, nil
}
