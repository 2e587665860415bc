package database

import (
	"fmt"

	"gorm.io/gorm"

	"gigmarket/internal/model"
	"gigmarket/pkg/log"
)

// AutoMigrate auto migrate database table schema
func AutoMigrate(db *gorm.DB) error {
	log.Info("Starting database migration...")

	models := []interface{}{
		&model.User{},
		&model.SellerLevel{},
		&model.Seller{},
		&model.SavedSeller{},
		&model.ServicePost{},
		&model.Package{},
		&model.MessageGroup{},
		&model.GroupMember{},
		&model.Message{},
		&model.MessageFile{},
		&model.OrderRequest{},
		&model.Order{},
		&model.CompleteOrderRequest{},
		&model.Notification{},
	}

	for _, m := range models {
		if err := db.AutoMigrate(m); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", m, err)
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes create additional indexes
func CreateIndexes(db *gorm.DB) error {
	indexes := []struct {
		table string
		name  string
		sql   string
	}{
		{
			table: "messages",
			name:  "idx_messages_group_id_id",
			sql:   "CREATE INDEX idx_messages_group_id_id ON messages (group_id, id)",
		},
		{
			table: "notifications",
			name:  "idx_notifications_user_unread",
			sql:   "CREATE INDEX idx_notifications_user_unread ON notifications (user_id, unread, id)",
		},
		{
			// speeds the open-request re-check inside request creation
			table: "order_requests",
			name:  "idx_requests_package_client_status",
			sql:   "CREATE INDEX idx_requests_package_client_status ON order_requests (package_id, client_id, status)",
		},
	}

	// MySQL has no CREATE INDEX IF NOT EXISTS, check the statistics table
	for _, idx := range indexes {
		var count int64
		err := db.Raw(
			"SELECT COUNT(1) FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = ? AND index_name = ?",
			idx.table, idx.name,
		).Scan(&count).Error
		if err != nil {
			log.Warnf("Failed to check index %s on table %s: %v", idx.name, idx.table, err)
			continue
		}
		if count > 0 {
			continue
		}
		if err := db.Exec(idx.sql).Error; err != nil {
			log.Warnf("Failed to create index %s on table %s: %v", idx.name, idx.table, err)
		}
	}

	return nil
}
