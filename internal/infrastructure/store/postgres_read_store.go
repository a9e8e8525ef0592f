package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/example/eri-mobile-shop/internal/readmodel"
)

var ErrUnknownCollection = errors.New("unknown read model collection")

// PostgresReadStore implements ReadStoreInterface on the read_* tables
type PostgresReadStore struct {
	db *sql.DB
	mu sync.Mutex // serializes Update's read-modify-write
}

// NewPostgresReadStore creates a new PostgreSQL-based read store
func NewPostgresReadStore(db *sql.DB) *PostgresReadStore {
	return &PostgresReadStore{db: db}
}

func tableFor(collection string) (string, error) {
	switch collection {
	case readmodel.CollectionProducts:
		return "read_products", nil
	case readmodel.CollectionOrders:
		return "read_orders", nil
	case readmodel.CollectionUsers:
		return "read_users", nil
	case readmodel.CollectionSettings:
		return "read_settings", nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
}

// Set stores a read model
func (rs *PostgresReadStore) Set(ctx context.Context, collection, id string, data any) error {
	switch collection {
	case readmodel.CollectionProducts:
		return rs.setProduct(ctx, data.(*readmodel.ProductReadModel))
	case readmodel.CollectionOrders:
		return rs.setOrder(ctx, data.(*readmodel.OrderReadModel))
	case readmodel.CollectionUsers:
		return rs.setUser(ctx, data.(*readmodel.UserReadModel))
	case readmodel.CollectionSettings:
		return rs.setSettings(ctx, id, data.(*readmodel.SettingsReadModel))
	}
	return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
}

// Get retrieves a read model by id
func (rs *PostgresReadStore) Get(ctx context.Context, collection, id string) (any, bool, error) {
	var (
		v   any
		err error
	)
	switch collection {
	case readmodel.CollectionProducts:
		v, err = rs.getProduct(ctx, id)
	case readmodel.CollectionOrders:
		v, err = rs.getOrder(ctx, id)
	case readmodel.CollectionUsers:
		v, err = rs.getUser(ctx, id)
	case readmodel.CollectionSettings:
		v, err = rs.getSettings(ctx, id)
	default:
		return nil, false, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// GetAll retrieves all items in a collection
func (rs *PostgresReadStore) GetAll(ctx context.Context, collection string) ([]any, error) {
	switch collection {
	case readmodel.CollectionProducts:
		return rs.getAllProducts(ctx)
	case readmodel.CollectionOrders:
		return rs.getAllOrders(ctx)
	case readmodel.CollectionUsers:
		return rs.getAllUsers(ctx)
	case readmodel.CollectionSettings:
		s, err := rs.getSettings(ctx, readmodel.SettingsID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []any{s}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
}

// Delete removes a read model
func (rs *PostgresReadStore) Delete(ctx context.Context, collection, id string) error {
	table, err := tableFor(collection)
	if err != nil {
		return err
	}
	if _, err := rs.db.ExecContext(ctx, "DELETE FROM "+table+" WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}

// Update modifies a read model using an update function
func (rs *PostgresReadStore) Update(ctx context.Context, collection, id string, updateFn func(current any) any) (bool, error) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	current, found, err := rs.Get(ctx, collection, id)
	if err != nil || !found {
		return false, err
	}
	if err := rs.Set(ctx, collection, id, updateFn(current)); err != nil {
		return false, err
	}
	return true, nil
}

// Product operations

const productColumns = `id, name, subtitle, image, badge, rating, reviews, specs, description, category, variants, created_at, updated_at`

func (rs *PostgresReadStore) setProduct(ctx context.Context, p *readmodel.ProductReadModel) error {
	specs, err := json.Marshal(p.Specs)
	if err != nil {
		return err
	}
	variants, err := json.Marshal(p.Variants)
	if err != nil {
		return err
	}
	_, err = rs.db.ExecContext(ctx, `
		INSERT INTO read_products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			subtitle = EXCLUDED.subtitle,
			image = EXCLUDED.image,
			badge = EXCLUDED.badge,
			rating = EXCLUDED.rating,
			reviews = EXCLUDED.reviews,
			specs = EXCLUDED.specs,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			variants = EXCLUDED.variants,
			updated_at = EXCLUDED.updated_at
	`, p.ID, p.Name, p.Subtitle, p.Image, p.Badge, p.Rating, p.Reviews, specs, p.Description, p.Category, variants, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set product: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*readmodel.ProductReadModel, error) {
	var p readmodel.ProductReadModel
	var specs, variants []byte
	if err := row.Scan(&p.ID, &p.Name, &p.Subtitle, &p.Image, &p.Badge, &p.Rating, &p.Reviews, &specs, &p.Description, &p.Category, &variants, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(specs, &p.Specs); err != nil {
		return nil, fmt.Errorf("failed to decode specs: %w", err)
	}
	if err := json.Unmarshal(variants, &p.Variants); err != nil {
		return nil, fmt.Errorf("failed to decode variants: %w", err)
	}
	return &p, nil
}

func (rs *PostgresReadStore) getProduct(ctx context.Context, id string) (*readmodel.ProductReadModel, error) {
	return scanProduct(rs.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM read_products WHERE id = $1`, id))
}

func (rs *PostgresReadStore) getAllProducts(ctx context.Context) ([]any, error) {
	rows, err := rs.db.QueryContext(ctx, `SELECT `+productColumns+` FROM read_products ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []any
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Order operations

const orderColumns = `id, items, customer, status, subtotal, shipping, tax, total, created_at, updated_at`

func (rs *PostgresReadStore) setOrder(ctx context.Context, o *readmodel.OrderReadModel) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return err
	}
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return err
	}
	_, err = rs.db.ExecContext(ctx, `
		INSERT INTO read_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at
	`, o.ID, items, customer, o.Status, o.Subtotal, o.Shipping, o.Tax, o.Total, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set order: %w", err)
	}
	return nil
}

func scanOrder(row rowScanner) (*readmodel.OrderReadModel, error) {
	var o readmodel.OrderReadModel
	var items, customer []byte
	if err := row.Scan(&o.ID, &items, &customer, &o.Status, &o.Subtotal, &o.Shipping, &o.Tax, &o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return nil, fmt.Errorf("failed to decode order items: %w", err)
	}
	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return nil, fmt.Errorf("failed to decode customer: %w", err)
	}
	return &o, nil
}

func (rs *PostgresReadStore) getOrder(ctx context.Context, id string) (*readmodel.OrderReadModel, error) {
	return scanOrder(rs.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM read_orders WHERE id = $1`, id))
}

func (rs *PostgresReadStore) getAllOrders(ctx context.Context) ([]any, error) {
	rows, err := rs.db.QueryContext(ctx, `SELECT `+orderColumns+` FROM read_orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	var orders []any
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// User operations

const userColumns = `id, email, password_hash, name, role, is_active, created_at, updated_at`

func (rs *PostgresReadStore) setUser(ctx context.Context, u *readmodel.UserReadModel) error {
	_, err := rs.db.ExecContext(ctx, `
		INSERT INTO read_users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			name = EXCLUDED.name,
			role = EXCLUDED.role,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set user: %w", err)
	}
	return nil
}

func scanUser(row rowScanner) (*readmodel.UserReadModel, error) {
	var u readmodel.UserReadModel
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (rs *PostgresReadStore) getUser(ctx context.Context, id string) (*readmodel.UserReadModel, error) {
	return scanUser(rs.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM read_users WHERE id = $1`, id))
}

func (rs *PostgresReadStore) getAllUsers(ctx context.Context) ([]any, error) {
	rows, err := rs.db.QueryContext(ctx, `SELECT `+userColumns+` FROM read_users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []any
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Settings operations

func (rs *PostgresReadStore) setSettings(ctx context.Context, id string, s *readmodel.SettingsReadModel) error {
	_, err := rs.db.ExecContext(ctx, `
		INSERT INTO read_settings (id, store_name, store_email, store_phone, store_address, currency, tax_rate, free_shipping_threshold, shipping_flat, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			store_name = EXCLUDED.store_name,
			store_email = EXCLUDED.store_email,
			store_phone = EXCLUDED.store_phone,
			store_address = EXCLUDED.store_address,
			currency = EXCLUDED.currency,
			tax_rate = EXCLUDED.tax_rate,
			free_shipping_threshold = EXCLUDED.free_shipping_threshold,
			shipping_flat = EXCLUDED.shipping_flat,
			updated_at = EXCLUDED.updated_at
	`, id, s.StoreName, s.StoreEmail, s.StorePhone, s.StoreAddress, s.Currency, s.TaxRate, s.FreeShippingThreshold, s.ShippingFlat, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to set settings: %w", err)
	}
	return nil
}

func (rs *PostgresReadStore) getSettings(ctx context.Context, id string) (*readmodel.SettingsReadModel, error) {
	var s readmodel.SettingsReadModel
	err := rs.db.QueryRowContext(ctx, `
		SELECT id, store_name, store_email, store_phone, store_address, currency, tax_rate, free_shipping_threshold, shipping_flat, updated_at
		FROM read_settings WHERE id = $1
	`, id).Scan(&s.ID, &s.StoreName, &s.StoreEmail, &s.StorePhone, &s.StoreAddress, &s.Currency, &s.TaxRate, &s.FreeShippingThreshold, &s.ShippingFlat, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
