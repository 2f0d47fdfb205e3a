package sales

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"reda-store/internal/apperr"
	"reda-store/internal/models"
)

const dayLayout = "20060102"

// Sequencer hands out the per-day bill sequence. tx is the sale
// transaction; implementations backed by the database must use it.
type Sequencer interface {
	Next(ctx context.Context, tx *gorm.DB, day string) (int64, error)
}

// FormatBillNo renders PREFIX-YYYYMMDD-NNNNN.
func FormatBillNo(prefix, day string, seq int64) string {
	return fmt.Sprintf("%s-%s-%05d", prefix, day, seq)
}

// ReturnBillNo derives the bill number of the RETURN for a sale.
func ReturnBillNo(billNo string) string {
	return "RTN-" + billNo
}

// issuedOn returns the highest sequence already printed on a SALE bill for
// day. A counter that starts without state resumes after it, so a flushed
// Redis or a switch of sequencer mid-day cannot hand out a used number.
func issuedOn(tx *gorm.DB, day string) (int64, error) {
	var bills []string
	err := tx.Model(&models.Sale{}).
		Where("type = ? AND bill_no LIKE ?", models.SaleTypeSale, "%-"+day+"-%").
		Pluck("bill_no", &bills).Error
	if err != nil {
		return 0, apperr.Storage(err)
	}
	var highest int64
	for _, b := range bills {
		n, err := strconv.ParseInt(b[strings.LastIndex(b, "-")+1:], 10, 64)
		if err == nil && n > highest {
			highest = n
		}
	}
	return highest, nil
}

// DBSequencer keeps one counter row per day. The increment runs inside the
// sale transaction and holds the row lock until commit, so a rolled back
// sale gives its number back.
type DBSequencer struct{}

func (DBSequencer) Next(ctx context.Context, tx *gorm.DB, day string) (int64, error) {
	tx = tx.WithContext(ctx)
	res := tx.Model(&models.BillSequence{}).
		Where("day = ?", day).
		UpdateColumn("counter", gorm.Expr("counter + ?", 1))
	if res.Error != nil {
		return 0, apperr.Storage(res.Error)
	}
	if res.RowsAffected == 0 {
		floor, err := issuedOn(tx, day)
		if err != nil {
			return 0, err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.BillSequence{Day: day, Counter: floor}).Error; err != nil {
			return 0, apperr.Storage(err)
		}
		if err := tx.Model(&models.BillSequence{}).
			Where("day = ?", day).
			UpdateColumn("counter", gorm.Expr("counter + ?", 1)).Error; err != nil {
			return 0, apperr.Storage(err)
		}
	}
	var seq models.BillSequence
	if err := tx.Where("day = ?", day).Take(&seq).Error; err != nil {
		return 0, apperr.Storage(err)
	}
	return seq.Counter, nil
}

// RedisSequencer uses INCR on a per-day key. Numbers taken by a sale that
// later rolls back are skipped, never reused. A missing key is seeded from
// the bills already stored for the day.
type RedisSequencer struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisSequencer(client redis.Cmdable) *RedisSequencer {
	return &RedisSequencer{client: client, ttl: 48 * time.Hour}
}

func redisKey(day string) string {
	return "bill:seq:" + day
}

func (r *RedisSequencer) Next(ctx context.Context, tx *gorm.DB, day string) (int64, error) {
	key := redisKey(day)
	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return 0, apperr.Storage(fmt.Errorf("redis bill sequence: %w", err))
	}
	if exists == 0 {
		floor, err := issuedOn(tx.WithContext(ctx), day)
		if err != nil {
			return 0, err
		}
		// SETNX keeps whichever seed landed first
		if err := r.client.SetNX(ctx, key, floor, r.ttl).Err(); err != nil {
			return 0, apperr.Storage(fmt.Errorf("redis bill sequence: %w", err))
		}
	}
	n, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, apperr.Storage(fmt.Errorf("redis bill sequence: %w", err))
	}
	return n, nil
}
