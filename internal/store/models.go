package store

// Block is the per-height block record (§3). Height is the natural primary
// key; the secondary store's invariant "head height = max(height)" is
// enforced by IndexerState rather than recomputed from this table on every
// read.
type Block struct {
	Height       uint32  `gorm:"primaryKey;column:height"`
	Hash         string  `gorm:"size:64;uniqueIndex;column:hash"`
	Difficulty   float64 `gorm:"column:difficulty"`
	Time         int64   `gorm:"index;column:time"`
	Txs          int     `gorm:"column:txs"`
	Miner        string  `gorm:"index;column:miner"`
	MinerAddress string  `gorm:"column:miner_address"`
}

func (Block) TableName() string { return "blocks" }

// Transaction is the per-txid record (§3). The participating-address set is
// denormalized into TxAddress rather than a JSON column so it can be
// indexed and joined directly, following the teacher's PostTag/FeedCache
// denormalization pattern (internal/models/post.go, internal/models/cache.go).
type Transaction struct {
	Txid   string `gorm:"primaryKey;size:64;column:txid"`
	Height uint32 `gorm:"index;column:height"`
	Hash   string `gorm:"size:64;column:hash"`
	Time   int64  `gorm:"index;column:time"`
}

func (Transaction) TableName() string { return "transactions" }

// TxAddress is the many-to-many join between a transaction and every
// address that appears among its inputs/outputs (§3's "addresses" set,
// secondary-indexed).
type TxAddress struct {
	Txid    string `gorm:"primaryKey;size:64;column:txid"`
	Address string `gorm:"primaryKey;size:64;index;column:address"`
	Height  uint32 `gorm:"index;column:height"`
}

func (TxAddress) TableName() string { return "tx_addresses" }

// Coin is the per-(txid,index) output record (§3).
type Coin struct {
	Txid         string `gorm:"primaryKey;size:64;column:txid"`
	Idx          uint32 `gorm:"primaryKey;column:idx"`
	Height       uint32 `gorm:"index;column:height"`
	Time         int64  `gorm:"index;column:time"`
	Address      string `gorm:"index;column:address"`
	Value        int64  `gorm:"index;column:value"`
	CovenantType int    `gorm:"index;column:covenant_type"`
	CovenantItems string `gorm:"column:covenant_items"` // hex-encoded
	NameHash     string `gorm:"index;column:name_hash"`
	Spent        bool   `gorm:"index;column:spent"`
	SpentTxid    string `gorm:"column:spent_txid"`
	SpentIndex   uint32 `gorm:"column:spent_index"`
}

func (Coin) TableName() string { return "coins" }

// Name is the per-nameHash auction-facts record (§3).
type Name struct {
	NameHash string `gorm:"primaryKey;size:64;column:name_hash"`
	Name     string `gorm:"index;column:name"`
	Open     uint32 `gorm:"index:idx_name_open,sort:desc;column:open"`
	Value    int64  `gorm:"index:idx_name_value,sort:desc;column:value"`
	Highest  int64  `gorm:"column:highest"`
}

func (Name) TableName() string { return "names" }

// Summary is the per-UTC-day rolling counters record (§3).
type Summary struct {
	Time       int64   `gorm:"primaryKey;column:time"`
	Blocks     int64   `gorm:"column:blocks"`
	Txs        int64   `gorm:"column:txs"`
	TotalTxs   int64   `gorm:"column:total_txs"`
	Difficulty float64 `gorm:"column:difficulty"` // summed; divide by Blocks for daily average
	Supply     float64 `gorm:"column:supply"`     // cumulative, whole coins
	Burned     float64 `gorm:"column:burned"`     // cumulative, whole coins
}

func (Summary) TableName() string { return "summaries" }

// IndexerState is a singleton row tracking the indexer's resumable head
// height, read at startup to decide the catch-up scan's starting point
// (§4.2). It exists independently of max(Block.Height) so a crash between
// the block upsert and the head-height update (§4.2 step 5) is recoverable:
// on restart the indexer re-applies from the last durably recorded head,
// and re-application is idempotent (§8).
type IndexerState struct {
	ID     uint   `gorm:"primaryKey"`
	Height uint32 `gorm:"column:height"`
}

func (IndexerState) TableName() string { return "indexer_state" }

// AllModels lists every table for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Block{},
		&Transaction{},
		&TxAddress{},
		&Coin{},
		&Name{},
		&Summary{},
		&IndexerState{},
	}
}
