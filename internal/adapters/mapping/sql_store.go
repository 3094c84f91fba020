package mapping

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Xuanphat2004/moxa-gateway/internal/domain"
	"github.com/Xuanphat2004/moxa-gateway/internal/ports"
)

// SQLStore reads the mapping table through database/sql. Both supported drivers
// (modernc sqlite and lib/pq) accept $N placeholders.
type SQLStore struct {
	db    *sql.DB
	table string
}

func NewSQLStore(db *sql.DB, table string) *SQLStore {
	if table == "" {
		table = "mapping"
	}
	return &SQLStore{db: db, table: table}
}

func (s *SQLStore) Lookup(ctx context.Context, rtuID, publicAddress uint16) (uint16, error) {
	query := fmt.Sprintf("SELECT rtu_address FROM %s WHERE rtu_id = $1 AND tcp_address = $2", s.table)
	var addr int64
	err := s.db.QueryRowContext(ctx, query, int64(rtuID), int64(publicAddress)).Scan(&addr)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("rtu %d address %d: %w", rtuID, publicAddress, ports.ErrMappingNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("lookup mapping: %w", err)
	}
	if addr < 0 || addr > 0xFFFF {
		return 0, fmt.Errorf("mapping rtu %d address %d: device address %d out of range", rtuID, publicAddress, addr)
	}
	return uint16(addr), nil
}

// Init creates the mapping and logs tables when they do not exist.
func (s *SQLStore) Init(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (tcp_address INTEGER NOT NULL, rtu_id INTEGER NOT NULL, rtu_address INTEGER NOT NULL, PRIMARY KEY (rtu_id, tcp_address))", s.table),
		"CREATE TABLE IF NOT EXISTS logs (timestamp TEXT, service TEXT, message TEXT)",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Put inserts or replaces one entry. It relies on the (rtu_id, tcp_address) key Init
// creates; a table keyed on tcp_address alone rejects every Put.
func (s *SQLStore) Put(ctx context.Context, e domain.MappingEntry) error {
	query := fmt.Sprintf("INSERT INTO %s (tcp_address, rtu_id, rtu_address) VALUES ($1,$2,$3) ON CONFLICT (rtu_id, tcp_address) DO UPDATE SET rtu_address = EXCLUDED.rtu_address", s.table)
	if _, err := s.db.ExecContext(ctx, query, int64(e.PublicAddress), int64(e.RTUID), int64(e.DeviceAddress)); err != nil {
		return fmt.Errorf("put mapping: %w", err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, rtuID, publicAddress uint16) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE rtu_id = $1 AND tcp_address = $2", s.table)
	res, err := s.db.ExecContext(ctx, query, int64(rtuID), int64(publicAddress))
	if err != nil {
		return fmt.Errorf("delete mapping: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("rtu %d address %d: %w", rtuID, publicAddress, ports.ErrMappingNotFound)
	}
	return nil
}

func (s *SQLStore) List(ctx context.Context) ([]domain.MappingEntry, error) {
	query := fmt.Sprintf("SELECT rtu_id, tcp_address, rtu_address FROM %s ORDER BY rtu_id, tcp_address", s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list mapping: %w", err)
	}
	defer rows.Close()

	var out []domain.MappingEntry
	for rows.Next() {
		var rtu, public, device int64
		if err := rows.Scan(&rtu, &public, &device); err != nil {
			return nil, fmt.Errorf("scan mapping: %w", err)
		}
		out = append(out, domain.MappingEntry{RTUID: uint16(rtu), PublicAddress: uint16(public), DeviceAddress: uint16(device)})
	}
	return out, rows.Err()
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

var _ ports.MappingStore = (*SQLStore)(nil)
