package database

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/web3guy0/flasharb/internal/arbitrage"
)

// Database is the trade journal. Everything here is observability: the bot
// runs fine without it, and journal failures never block an iteration.
type Database struct {
	db *gorm.DB
}

// Models

// Opportunity is one evaluated quote comparison.
type Opportunity struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	TokenPair    string          `gorm:"index"`
	BuyVenue     string
	SellVenue    string
	AmountWei    string          // wei as string, exact
	GrossSpread  decimal.Decimal `gorm:"type:decimal(30,18)"` // ETH
	FlashLoanFee decimal.Decimal `gorm:"type:decimal(30,18)"` // ETH
	GasCost      decimal.Decimal `gorm:"type:decimal(30,18)"` // ETH
	NetProfit    decimal.Decimal `gorm:"type:decimal(30,18)"` // ETH
	Profitable   bool            `gorm:"index"`
	CreatedAt    time.Time
}

// Execution is one submitted arbitrage transaction and its outcome.
type Execution struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	TxHash       string          `gorm:"index"`
	NetProfit    decimal.Decimal `gorm:"type:decimal(30,18)"` // ETH, realized
	Status       string          `gorm:"index"`               // "confirmed" or "failed"
	ErrorMessage string
	CreatedAt    time.Time
}

// New opens the journal. A postgres:// DSN selects PostgreSQL, anything else
// is treated as a SQLite file path.
func New(dbPath string) (*Database, error) {
	var db *gorm.DB
	var err error

	if strings.HasPrefix(dbPath, "postgres://") || strings.HasPrefix(dbPath, "postgresql://") {
		db, err = gorm.Open(postgres.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Msg("Journal connected (PostgreSQL)")
	} else {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
		db, err = gorm.Open(sqlite.Open(dbPath), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", dbPath).Msg("Journal initialized (SQLite)")
	}

	if err := db.AutoMigrate(&Opportunity{}, &Execution{}); err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

// RecordOpportunity journals one evaluated opportunity (arbitrage.Journal).
func (d *Database) RecordOpportunity(opp arbitrage.Opportunity) error {
	row := Opportunity{
		TokenPair:    opp.TokenPair,
		BuyVenue:     opp.BuyVenue,
		SellVenue:    opp.SellVenue,
		AmountWei:    opp.Amount.String(),
		GrossSpread:  decimal.NewFromBigInt(opp.GrossSpread, -18),
		FlashLoanFee: decimal.NewFromBigInt(opp.FlashLoanFee, -18),
		GasCost:      decimal.NewFromBigInt(opp.GasCost, -18),
		NetProfit:    opp.NetProfitETH(),
		Profitable:   opp.Profitable,
	}
	return d.db.Create(&row).Error
}

// RecordExecution journals one submitted transaction (arbitrage.Journal).
func (d *Database) RecordExecution(txHash string, netProfit decimal.Decimal, status, errMsg string) error {
	row := Execution{
		TxHash:       txHash,
		NetProfit:    netProfit,
		Status:       status,
		ErrorMessage: errMsg,
	}
	return d.db.Create(&row).Error
}

// RecentExecutions returns the latest executions, newest first.
func (d *Database) RecentExecutions(limit int) ([]Execution, error) {
	var rows []Execution
	err := d.db.Order("created_at DESC").Limit(limit).Find(&rows).Error
	return rows, err
}

// TotalRealizedProfit sums realized profit over confirmed executions.
func (d *Database) TotalRealizedProfit() (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := d.db.Model(&Execution{}).
		Where("status = ?", "confirmed").
		Select("COALESCE(SUM(net_profit), 0) as total").
		Scan(&result).Error
	return result.Total, err
}

// Stats returns aggregate journal statistics.
func (d *Database) Stats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var oppCount int64
	d.db.Model(&Opportunity{}).Count(&oppCount)
	stats["total_opportunities"] = oppCount

	var profitableCount int64
	d.db.Model(&Opportunity{}).Where("profitable = ?", true).Count(&profitableCount)
	stats["profitable_opportunities"] = profitableCount

	var confirmedCount int64
	d.db.Model(&Execution{}).Where("status = ?", "confirmed").Count(&confirmedCount)
	stats["confirmed_executions"] = confirmedCount

	var failedCount int64
	d.db.Model(&Execution{}).Where("status = ?", "failed").Count(&failedCount)
	stats["failed_executions"] = failedCount

	pnl, _ := d.TotalRealizedProfit()
	stats["total_profit"] = pnl

	return stats, nil
}
