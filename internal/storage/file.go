package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/cavestore/orderbot/internal/logger"
	"github.com/cavestore/orderbot/internal/models"
	"github.com/cavestore/orderbot/internal/timeutil"
	"go.uber.org/zap"
)

// orderRecord is the on-disk shape of one order. The field names are the
// store's historical wire format and must not change.
type orderRecord struct {
	UserID       int64   `json:"user_id"`
	User         string  `json:"user"`
	HinhThuc     string  `json:"hinh_thuc"`
	Loai         string  `json:"loai"`
	SoLuong      string  `json:"so_luong"`
	GhiChu       string  `json:"ghi_chu"`
	TrangThai    string  `json:"trang_thai"`
	NguoiNhan    *string `json:"nguoi_nhan"`
	NguoiNhanID  *int64  `json:"nguoi_nhan_id"`
	ThoiHan      *string `json:"thoi_han"`
	ThoiGian     string  `json:"thoi_gian"`
	DaNhacHetGio bool    `json:"da_nhac_het_gio"`
	QuaHan       bool    `json:"qua_han"`
}

// FileStore keeps all orders in memory and rewrites the whole backing file on
// every mutation. Order volume is low; simplicity wins over throughput here.
type FileStore struct {
	path   string
	mu     sync.Mutex
	orders map[string]models.Order
}

// NewFileStore loads the backing file if it exists. A corrupt file starts the
// store empty with a warning instead of failing.
func NewFileStore(path string) *FileStore {
	store := &FileStore{
		path:   path,
		orders: make(map[string]models.Order),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Log.Warn("failed to read orders file, starting empty", zap.String("path", path), zap.Error(err))
		}
		return store
	}

	var records map[string]orderRecord
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Log.Warn("orders file is corrupt, starting empty", zap.String("path", path), zap.Error(err))
		return store
	}

	for id, record := range records {
		order, err := record.toOrder(id)
		if err != nil {
			logger.Log.Warn("skipping unreadable order record", zap.String("orderID", id), zap.Error(err))
			continue
		}
		store.orders[id] = *order
	}

	return store
}

func (record orderRecord) toOrder(id string) (*models.Order, error) {
	createdAt, err := timeutil.ParseWireTime(record.ThoiGian)
	if err != nil {
		return nil, fmt.Errorf("bad creation timestamp: %w", err)
	}

	order := &models.Order{
		ID:           id,
		CustomerID:   record.UserID,
		CustomerName: record.User,
		ServiceType:  record.HinhThuc,
		Subtype:      record.Loai,
		Quantity:     record.SoLuong,
		Note:         record.GhiChu,
		Status:       models.OrderStatus(record.TrangThai),
		AssigneeID:   record.NguoiNhanID,
		AssigneeName: record.NguoiNhan,
		CreatedAt:    createdAt,
		ReminderSent: record.DaNhacHetGio,
		Expired:      record.QuaHan,
	}

	if record.ThoiHan != nil {
		deadline, err := timeutil.ParseWireTime(*record.ThoiHan)
		if err != nil {
			return nil, fmt.Errorf("bad deadline timestamp: %w", err)
		}
		order.Deadline = &deadline
	}

	return order, nil
}

func toRecord(order *models.Order) orderRecord {
	record := orderRecord{
		UserID:       order.CustomerID,
		User:         order.CustomerName,
		HinhThuc:     order.ServiceType,
		Loai:         order.Subtype,
		SoLuong:      order.Quantity,
		GhiChu:       order.Note,
		TrangThai:    string(order.Status),
		NguoiNhan:    order.AssigneeName,
		NguoiNhanID:  order.AssigneeID,
		ThoiGian:     timeutil.FormatWireTime(order.CreatedAt),
		DaNhacHetGio: order.ReminderSent,
		QuaHan:       order.Expired,
	}

	if order.Deadline != nil {
		deadline := timeutil.FormatWireTime(*order.Deadline)
		record.ThoiHan = &deadline
	}

	return record
}

// persist rewrites the whole file. Callers must hold the mutex.
func (fs *FileStore) persist() error {
	records := make(map[string]orderRecord, len(fs.orders))
	for id, order := range fs.orders {
		order := order
		records[id] = toRecord(&order)
	}

	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}

	if err := os.WriteFile(fs.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write orders file: %w", err)
	}

	return nil
}

func (fs *FileStore) Get(_ context.Context, id string) (*models.Order, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	order, ok := fs.orders[id]
	if !ok {
		return nil, ErrNotFound
	}

	return &order, nil
}

func (fs *FileStore) Add(_ context.Context, order *models.Order) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.orders[order.ID]; ok {
		return ErrAlreadyExists
	}

	fs.orders[order.ID] = *order

	return fs.persist()
}

func (fs *FileStore) Put(_ context.Context, order *models.Order) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.orders[order.ID] = *order

	return fs.persist()
}

func (fs *FileStore) Delete(_ context.Context, id string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.orders[id]; !ok {
		return ErrNotFound
	}

	delete(fs.orders, id)

	return fs.persist()
}

func (fs *FileStore) All(_ context.Context) ([]models.Order, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	orders := make([]models.Order, 0, len(fs.orders))
	for _, order := range fs.orders {
		orders = append(orders, order)
	}

	return orders, nil
}

func (fs *FileStore) Close() error {
	return nil
}
