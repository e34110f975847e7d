package store

import (
	"context"

	"github.com/ghazalyy/RetailAnalyticsApp/pkg/logger"
)

// Column types follow the dashboard backend's tables so both can share a
// database.
const createProduct = "CREATE TABLE IF NOT EXISTS `Product` (" +
	"`id` VARCHAR(191) NOT NULL," +
	"`name` VARCHAR(255) NOT NULL," +
	"`category` VARCHAR(191) NOT NULL," +
	"`subCategory` VARCHAR(191) NOT NULL," +
	"`price` DECIMAL(15,2) NOT NULL," +
	"`stock` INT NOT NULL DEFAULT 0," +
	"PRIMARY KEY (`id`)" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"

const createSale = "CREATE TABLE IF NOT EXISTS `Sale` (" +
	"`id` INT NOT NULL AUTO_INCREMENT," +
	"`orderId` VARCHAR(191) NOT NULL," +
	"`orderDate` DATETIME(3) NOT NULL," +
	"`customerId` VARCHAR(191) NOT NULL," +
	"`segment` VARCHAR(191) NOT NULL," +
	"`region` VARCHAR(191) NOT NULL," +
	"`productId` VARCHAR(191) NOT NULL," +
	"`category` VARCHAR(191) NOT NULL," +
	"`sales` DECIMAL(15,2) NOT NULL," +
	"`quantity` INT NOT NULL," +
	"`profit` DECIMAL(15,2) NOT NULL," +
	"PRIMARY KEY (`id`)," +
	"UNIQUE KEY `" + SaleUniqueKey + "` (`orderId`, `productId`)," +
	"KEY `Sale_orderDate_idx` (`orderDate`)," +
	"CONSTRAINT `Sale_productId_fkey` FOREIGN KEY (`productId`) REFERENCES `Product` (`id`) ON UPDATE CASCADE" +
	") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4"

const hasSaleUniqueKey = "SELECT COUNT(*) FROM information_schema.STATISTICS " +
	"WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND INDEX_NAME = ?"

const addSaleUniqueKey = "ALTER TABLE `Sale` ADD UNIQUE KEY `" + SaleUniqueKey + "` (`orderId`, `productId`)"

// EnsureSchema creates the Product and Sale tables when they are absent and
// adds the (orderId, productId) unique key to a Sale table that predates it.
// Adding the key fails when the table already holds duplicate pairs.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{createProduct, createSale} {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return classify("ensure schema", "", err)
		}
	}

	var n int
	if err := s.db.QueryRowContext(ctx, hasSaleUniqueKey, TableSale, SaleUniqueKey).Scan(&n); err != nil {
		return classify("inspect schema", TableSale, err)
	}
	if n > 0 {
		return nil
	}

	s.log.Info(ctx, "adding unique key to existing Sale table", logger.String("key", SaleUniqueKey))
	if _, err := s.db.ExecContext(ctx, addSaleUniqueKey); err != nil {
		return classify("add unique key", TableSale, err)
	}
	return nil
}
