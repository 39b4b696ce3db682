package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the shared handle every typed sub-repository embeds,
// mirroring the teacher's internal/db/repository.go composition pattern.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying gorm handle, for callers that need a shared
// transaction (the indexer's per-block apply, see internal/indexer).
func (r *Repository) DB() *gorm.DB { return r.db }

// WithTx returns a copy of the repository bound to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// ---- Block ----

type BlockRepository struct{ *Repository }

func NewBlockRepository(repo *Repository) *BlockRepository {
	return &BlockRepository{Repository: repo}
}

func (r *BlockRepository) GetByHeight(ctx context.Context, height uint32) (*Block, error) {
	var b Block
	if err := r.db.WithContext(ctx).First(&b, "height = ?", height).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BlockRepository) GetByHash(ctx context.Context, hash string) (*Block, error) {
	var b Block
	if err := r.db.WithContext(ctx).First(&b, "hash = ?", hash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// GetHead returns the highest block by height, or nil if the store is empty.
func (r *BlockRepository) GetHead(ctx context.Context) (*Block, error) {
	var b Block
	if err := r.db.WithContext(ctx).Order("height DESC").First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

// List returns up to limit blocks starting offset blocks back from the tip
// (§6.1: "offset is blocks from the tip").
func (r *BlockRepository) List(ctx context.Context, offset, limit int) ([]Block, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Block{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var blocks []Block
	err := r.db.WithContext(ctx).
		Order("height DESC").
		Offset(offset).
		Limit(limit).
		Find(&blocks).Error
	return blocks, total, err
}

func (r *BlockRepository) Upsert(ctx context.Context, b *Block) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "height"}},
		UpdateAll: true,
	}).Create(b).Error
}

func (r *BlockRepository) DeleteAbove(ctx context.Context, height uint32) error {
	return r.db.WithContext(ctx).Where("height > ?", height).Delete(&Block{}).Error
}

// PoolDistribution aggregates block counts by miner for blocks with
// time in (startTime, endTime] (§4.3).
func (r *BlockRepository) PoolDistribution(ctx context.Context, startTime, endTime int64) (map[string]int64, error) {
	rows, err := r.db.WithContext(ctx).
		Model(&Block{}).
		Select("miner, count(*) as count").
		Where("time > ? AND time <= ?", startTime, endTime).
		Group("miner").
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var miner string
		var count int64
		if err := rows.Scan(&miner, &count); err != nil {
			return nil, err
		}
		result[miner] = count
	}
	return result, rows.Err()
}

// ---- Transaction ----

type TransactionRepository struct{ *Repository }

func NewTransactionRepository(repo *Repository) *TransactionRepository {
	return &TransactionRepository{Repository: repo}
}

func (r *TransactionRepository) GetByTxid(ctx context.Context, txid string) (*Transaction, error) {
	var tx Transaction
	if err := r.db.WithContext(ctx).First(&tx, "txid = ?", txid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

// Upsert writes the transaction record and its address join rows (§3).
func (r *TransactionRepository) Upsert(ctx context.Context, tx *Transaction, addresses []string) error {
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "txid"}},
		UpdateAll: true,
	}).Create(tx).Error; err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}

	if len(addresses) == 0 {
		return nil
	}
	joins := make([]TxAddress, 0, len(addresses))
	for _, addr := range addresses {
		joins = append(joins, TxAddress{Txid: tx.Txid, Address: addr, Height: tx.Height})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&joins).Error
}

func (r *TransactionRepository) ByAddress(ctx context.Context, address string, offset, limit int) ([]Transaction, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&TxAddress{}).Where("address = ?", address).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txids []string
	if err := r.db.WithContext(ctx).Model(&TxAddress{}).
		Where("address = ?", address).
		Order("height DESC").
		Offset(offset).Limit(limit).
		Pluck("txid", &txids).Error; err != nil {
		return nil, 0, err
	}
	if len(txids) == 0 {
		return nil, total, nil
	}

	var txs []Transaction
	if err := r.db.WithContext(ctx).Where("txid IN ?", txids).Order("height DESC").Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func (r *TransactionRepository) ByHeight(ctx context.Context, height uint32) ([]Transaction, error) {
	var txs []Transaction
	err := r.db.WithContext(ctx).Where("height = ?", height).Find(&txs).Error
	return txs, err
}

func (r *TransactionRepository) Recent(ctx context.Context, limit int) ([]Transaction, error) {
	var txs []Transaction
	err := r.db.WithContext(ctx).Order("height DESC, txid ASC").Limit(limit).Find(&txs).Error
	return txs, err
}

func (r *TransactionRepository) DeleteAbove(ctx context.Context, height uint32) error {
	var txids []string
	if err := r.db.WithContext(ctx).Model(&Transaction{}).Where("height > ?", height).Pluck("txid", &txids).Error; err != nil {
		return err
	}
	if len(txids) > 0 {
		if err := r.db.WithContext(ctx).Where("txid IN ?", txids).Delete(&TxAddress{}).Error; err != nil {
			return err
		}
	}
	return r.db.WithContext(ctx).Where("height > ?", height).Delete(&Transaction{}).Error
}

// ---- Coin ----

type CoinRepository struct{ *Repository }

func NewCoinRepository(repo *Repository) *CoinRepository {
	return &CoinRepository{Repository: repo}
}

func (r *CoinRepository) Get(ctx context.Context, txid string, idx uint32) (*Coin, error) {
	var c Coin
	if err := r.db.WithContext(ctx).First(&c, "txid = ? AND idx = ?", txid, idx).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *CoinRepository) Upsert(ctx context.Context, c *Coin) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "txid"}, {Name: "idx"}},
		UpdateAll: true,
	}).Create(c).Error
}

// MarkSpent records that (txid,idx) was consumed by the input at
// (spentTxid, spentIndex), per §4.2 step 2.
func (r *CoinRepository) MarkSpent(ctx context.Context, txid string, idx uint32, spentTxid string, spentIndex uint32) error {
	return r.db.WithContext(ctx).Model(&Coin{}).
		Where("txid = ? AND idx = ?", txid, idx).
		Updates(map[string]interface{}{
			"spent":       true,
			"spent_txid":  spentTxid,
			"spent_index": spentIndex,
		}).Error
}

// ClearSpentAbove undoes MarkSpent for any coin whose spending tx was at a
// height being rolled back (§4.2's rollback algorithm).
func (r *CoinRepository) ClearSpentAbove(ctx context.Context, height uint32) error {
	var spentTxids []string
	if err := r.db.WithContext(ctx).Model(&Transaction{}).Where("height > ?", height).Pluck("txid", &spentTxids).Error; err != nil {
		return err
	}
	if len(spentTxids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&Coin{}).
		Where("spent_txid IN ?", spentTxids).
		Updates(map[string]interface{}{
			"spent":       false,
			"spent_txid":  "",
			"spent_index": 0,
		}).Error
}

func (r *CoinRepository) ByNameHash(ctx context.Context, nameHash string) ([]Coin, error) {
	var coins []Coin
	err := r.db.WithContext(ctx).Where("name_hash = ?", nameHash).Order("time DESC").Find(&coins).Error
	return coins, err
}

func (r *CoinRepository) ByNameHashPaged(ctx context.Context, nameHash string, offset, limit int) ([]Coin, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Coin{}).Where("name_hash = ?", nameHash).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var coins []Coin
	err := r.db.WithContext(ctx).Where("name_hash = ?", nameHash).
		Order("time DESC").Offset(offset).Limit(limit).Find(&coins).Error
	return coins, total, err
}

// AddressBalance aggregates received/sent for getAddress (§4.3).
func (r *CoinRepository) AddressBalance(ctx context.Context, address string) (received, sent int64, err error) {
	row := r.db.WithContext(ctx).Model(&Coin{}).
		Select("COALESCE(SUM(value),0) as received").
		Where("address = ?", address).Row()
	if err = row.Scan(&received); err != nil {
		return 0, 0, err
	}
	row = r.db.WithContext(ctx).Model(&Coin{}).
		Select("COALESCE(SUM(value),0) as sent").
		Where("address = ? AND spent = true", address).Row()
	if err = row.Scan(&sent); err != nil {
		return 0, 0, err
	}
	return received, sent, nil
}

// TopBidsSince returns BID coins with time >= sinceTime, sorted by value
// desc, for the Cached Aggregates top-bid-names view (§4.4).
func (r *CoinRepository) TopBidsSince(ctx context.Context, sinceTime int64, covenantType int) ([]Coin, error) {
	var coins []Coin
	err := r.db.WithContext(ctx).
		Where("covenant_type = ? AND time >= ?", covenantType, sinceTime).
		Order("value DESC").
		Find(&coins).Error
	return coins, err
}

func (r *CoinRepository) DeleteAbove(ctx context.Context, height uint32) error {
	return r.db.WithContext(ctx).Where("height > ?", height).Delete(&Coin{}).Error
}

// NameHashesWithCovenantAbove returns the distinct name hashes touched by a
// covenant of the given type above height, used by rollback to find which
// names need their bid state replayed once those coins are deleted.
func (r *CoinRepository) NameHashesWithCovenantAbove(ctx context.Context, covenantType int, height uint32) ([]string, error) {
	var hashes []string
	err := r.db.WithContext(ctx).Model(&Coin{}).
		Where("covenant_type = ? AND height > ? AND name_hash <> ''", covenantType, height).
		Distinct("name_hash").
		Pluck("name_hash", &hashes).Error
	return hashes, err
}

// RevealCoinsUpTo returns the REVEAL coins for nameHash still present at or
// below height, ordered by block height, then txid and output index as a
// tie-break, for replaying the second-price rule after a rollback deletes
// newer reveals.
func (r *CoinRepository) RevealCoinsUpTo(ctx context.Context, nameHash string, covenantType int, height uint32) ([]Coin, error) {
	var coins []Coin
	err := r.db.WithContext(ctx).
		Where("name_hash = ? AND covenant_type = ? AND height <= ?", nameHash, covenantType, height).
		Order("height ASC, txid ASC, idx ASC").
		Find(&coins).Error
	return coins, err
}

// ---- Name ----

type NameRepository struct{ *Repository }

func NewNameRepository(repo *Repository) *NameRepository {
	return &NameRepository{Repository: repo}
}

func (r *NameRepository) Get(ctx context.Context, nameHash string) (*Name, error) {
	var n Name
	if err := r.db.WithContext(ctx).First(&n, "name_hash = ?", nameHash).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

func (r *NameRepository) GetByName(ctx context.Context, name string) (*Name, error) {
	var n Name
	if err := r.db.WithContext(ctx).First(&n, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &n, nil
}

// UpsertOpen creates or resets the name record on OPEN/CLAIM (§4.2 step 2):
// a new auction cycle starts with value/highest reset to zero.
func (r *NameRepository) UpsertOpen(ctx context.Context, n *Name) error {
	n.Value = 0
	n.Highest = 0
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name_hash"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "open", "value", "highest"}),
	}).Create(n).Error
}

// SetBid persists the second-price-rule outcome of a REVEAL (§4.2 step 2).
func (r *NameRepository) SetBid(ctx context.Context, nameHash string, value, highest int64) error {
	return r.db.WithContext(ctx).Model(&Name{}).
		Where("name_hash = ?", nameHash).
		Updates(map[string]interface{}{"value": value, "highest": highest}).Error
}

func (r *NameRepository) DeleteAbove(ctx context.Context, height uint32) error {
	return r.db.WithContext(ctx).Where("open > ?", height).Delete(&Name{}).Error
}

func (r *NameRepository) TopByValue(ctx context.Context, limit int) ([]Name, error) {
	var names []Name
	err := r.db.WithContext(ctx).Order("value DESC").Limit(limit).Find(&names).Error
	return names, err
}

// ByOpenWindow filters names with open in (min, max], sorted by open desc
// (§4.3's getNamesByStatus).
func (r *NameRepository) ByOpenWindow(ctx context.Context, min, max int64, offset, limit int) ([]Name, int64, error) {
	q := r.db.WithContext(ctx).Model(&Name{}).Where("open > ? AND open <= ?", min, max)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var names []Name
	err := r.db.WithContext(ctx).Where("open > ? AND open <= ?", min, max).
		Order("open DESC").Offset(offset).Limit(limit).Find(&names).Error
	return names, total, err
}

func (r *NameRepository) CountInWindow(ctx context.Context, min, max int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&Name{}).Where("open > ? AND open <= ?", min, max).Count(&count).Error
	return count, err
}

// ---- Summary ----

type SummaryRepository struct{ *Repository }

func NewSummaryRepository(repo *Repository) *SummaryRepository {
	return &SummaryRepository{Repository: repo}
}

func (r *SummaryRepository) GetByDay(ctx context.Context, dayTime int64) (*Summary, error) {
	var s Summary
	if err := r.db.WithContext(ctx).First(&s, "time = ?", dayTime).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Latest returns the most recent summary row, or nil if none exist.
func (r *SummaryRepository) Latest(ctx context.Context) (*Summary, error) {
	var s Summary
	if err := r.db.WithContext(ctx).Order("time DESC").First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SummaryRepository) Upsert(ctx context.Context, s *Summary) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "time"}},
		UpdateAll: true,
	}).Create(s).Error
}

// Range returns summary rows with time in (start, end].
func (r *SummaryRepository) Range(ctx context.Context, start, end int64) ([]Summary, error) {
	var rows []Summary
	err := r.db.WithContext(ctx).
		Where("time > ? AND time <= ?", start, end).
		Order("time ASC").
		Find(&rows).Error
	return rows, err
}

func (r *SummaryRepository) DeleteAfter(ctx context.Context, dayTime int64) error {
	return r.db.WithContext(ctx).Where("time > ?", dayTime).Delete(&Summary{}).Error
}

// ---- IndexerState ----

type IndexerStateRepository struct{ *Repository }

func NewIndexerStateRepository(repo *Repository) *IndexerStateRepository {
	return &IndexerStateRepository{Repository: repo}
}

// Get returns the persisted head height, or 0 if indexing has never run.
func (r *IndexerStateRepository) Get(ctx context.Context) (uint32, error) {
	var s IndexerState
	if err := r.db.WithContext(ctx).First(&s, "id = ?", 1).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return s.Height, nil
}

func (r *IndexerStateRepository) SetHeight(ctx context.Context, height uint32) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&IndexerState{ID: 1, Height: height}).Error
}
