// Package store implements the marketplace persistence port on SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"edobot/internal/domain"
)

// SQLiteStore implements domain.Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}

	// Single connection for SQLite
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db, logger: logger}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS shop_channels (
		channel_id     TEXT PRIMARY KEY,
		shop_id        TEXT NOT NULL,
		seller_user_id TEXT NOT NULL,
		seller_address TEXT,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT,
		phone      TEXT UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS items (
		id          TEXT PRIMARY KEY,
		seller_id   TEXT NOT NULL,
		title       TEXT NOT NULL,
		description TEXT,
		price       TEXT NOT NULL,
		condition   TEXT,
		status      TEXT NOT NULL DEFAULT 'available',
		images      TEXT,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_items_seller ON items(seller_id, status);

	CREATE TABLE IF NOT EXISTS orders (
		id             TEXT PRIMARY KEY,
		item_id        TEXT NOT NULL,
		buyer_user_id  TEXT,
		seller_user_id TEXT NOT NULL,
		quantity       INTEGER NOT NULL CHECK (quantity >= 1),
		price          TEXT NOT NULL,
		status         TEXT NOT NULL,
		thread_address TEXT,
		created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_orders_seller ON orders(seller_user_id, created_at);

	CREATE TABLE IF NOT EXISTS inbound_messages (
		message_id   TEXT PRIMARY KEY,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS message_log (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		direction  TEXT NOT NULL,
		from_addr  TEXT,
		to_addr    TEXT,
		payload    TEXT,
		user_id    TEXT,
		shop_id    TEXT,
		order_id   TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_message_log_time ON message_log(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// ListAvailableItems returns one page of available items, newest first.
// An empty sellerID lists across all sellers.
func (s *SQLiteStore) ListAvailableItems(ctx context.Context, sellerID string, page, pageSize int) ([]domain.Item, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	offset := (page - 1) * pageSize

	query := `SELECT id, seller_id, title, description, price, condition, status, images, created_at
	          FROM items WHERE status = ?`
	args := []any{domain.ItemStatusAvailable}
	if sellerID != "" {
		query += ` AND seller_id = ?`
		args = append(args, sellerID)
	}
	query += ` ORDER BY created_at DESC, id LIMIT ? OFFSET ?`
	args = append(args, pageSize, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *SQLiteStore) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, seller_id, title, description, price, condition, status, images, created_at
		 FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return &item, nil
}

func (s *SQLiteStore) FindUserByAddress(ctx context.Context, address string) (*domain.User, error) {
	var u domain.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, phone, created_at FROM users WHERE phone = ?`, address,
	).Scan(&u.ID, &u.Name, &u.Phone, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by address: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) CreateOrder(ctx context.Context, order domain.Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	var buyer any
	if order.BuyerUserID != "" {
		buyer = order.BuyerUserID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id, item_id, buyer_user_id, seller_user_id, quantity, price, status, thread_address, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.ItemID, buyer, order.SellerUserID, order.Quantity,
		order.Price.String(), string(order.Status), order.ThreadAddress, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *SQLiteStore) FindShopByChannel(ctx context.Context, channelID string) (*domain.ShopContext, error) {
	var sc domain.ShopContext
	var sellerAddr sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT channel_id, shop_id, seller_user_id, seller_address FROM shop_channels WHERE channel_id = ?`,
		channelID,
	).Scan(&sc.ChannelID, &sc.ShopID, &sc.SellerUserID, &sellerAddr)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find shop by channel: %w", err)
	}
	sc.SellerAddress = sellerAddr.String
	return &sc, nil
}

// MarkProcessed claims a message id. The UNIQUE constraint makes the claim
// survive restarts, which is what dedups re-delivered webhooks.
func (s *SQLiteStore) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO inbound_messages (message_id) VALUES (?)`, messageID)
	if err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}
	return n > 0, nil
}

// LogMessage records an audit entry. Failures are logged and swallowed so
// logging can never block or break routing.
func (s *SQLiteStore) LogMessage(ctx context.Context, entry domain.MessageLog) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO message_log (direction, from_addr, to_addr, payload, user_id, shop_id, order_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Direction, entry.From, entry.To, entry.Payload,
		nullable(entry.UserID), nullable(entry.ShopID), nullable(entry.OrderID),
	)
	if err != nil {
		s.logger.Warn("message log write failed", "direction", entry.Direction, "err", err)
	}
}

// UpsertShopChannel maps a channel to a shop. Used by seeding and onboarding.
func (s *SQLiteStore) UpsertShopChannel(ctx context.Context, sc domain.ShopContext) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shop_channels (channel_id, shop_id, seller_user_id, seller_address)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET
		   shop_id = excluded.shop_id,
		   seller_user_id = excluded.seller_user_id,
		   seller_address = excluded.seller_address`,
		sc.ChannelID, sc.ShopID, sc.SellerUserID, sc.SellerAddress,
	)
	if err != nil {
		return fmt.Errorf("upsert shop channel: %w", err)
	}
	return nil
}

// InsertItem adds a listing. Used by seeding and onboarding.
func (s *SQLiteStore) InsertItem(ctx context.Context, item domain.Item) error {
	images, err := json.Marshal(item.Images)
	if err != nil {
		return fmt.Errorf("marshal images: %w", err)
	}
	if item.Status == "" {
		item.Status = domain.ItemStatusAvailable
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO items (id, seller_id, title, description, price, condition, status, images)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.SellerID, item.Title, item.Description,
		item.Price.String(), item.Condition, item.Status, string(images),
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// InsertUser adds a marketplace account. Used by seeding and onboarding.
func (s *SQLiteStore) InsertUser(ctx context.Context, u domain.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (id, name, phone) VALUES (?, ?, ?)`,
		u.ID, u.Name, u.Phone,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(r rowScanner) (domain.Item, error) {
	var item domain.Item
	var price string
	var description, condition, images sql.NullString
	if err := r.Scan(&item.ID, &item.SellerID, &item.Title, &description,
		&price, &condition, &item.Status, &images, &item.CreatedAt); err != nil {
		return domain.Item{}, err
	}
	item.Description = description.String
	item.Condition = condition.String

	p, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Item{}, fmt.Errorf("parse price %q: %w", price, err)
	}
	item.Price = p

	if images.Valid && images.String != "" {
		if err := json.Unmarshal([]byte(images.String), &item.Images); err != nil {
			// A broken images blob should not hide the item itself.
			item.Images = nil
		}
	}
	return item, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
