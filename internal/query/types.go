// Package query implements the Query Engine (D): read-side operations over
// the secondary store (A) and the chain client (B), joined with the cached
// aggregates (E) where §4.3 calls for it.
package query

// Page is a generic paginated result envelope matching §6.1's
// {total, limit, offset, result} shape.
type Page[T any] struct {
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Result []T   `json:"result"`
}

// TxIn is a normalized transaction input (§4.3's getTransaction).
type TxIn struct {
	Value    int64  `json:"value"`
	Address  string `json:"address,omitempty"`
	Coinbase bool   `json:"coinbase,omitempty"`
	Airdrop  bool   `json:"airdrop,omitempty"`
}

// TxOut is a normalized transaction output, fields present depending on the
// covenant action (§4.3).
type TxOut struct {
	Address  string `json:"address"`
	Value    int64  `json:"value,omitempty"`
	Action   string `json:"action"`
	Name     string `json:"name,omitempty"`
	NameHash string `json:"nameHash,omitempty"`
	Nonce    string `json:"nonce,omitempty"`
}

// Tx is the normalized transaction view returned by getTransaction and
// everywhere else a transaction is embedded (§4.3).
type Tx struct {
	Txid   string  `json:"hash"`
	Height uint32  `json:"height"`
	Block  string  `json:"block"`
	Time   int64   `json:"time"`
	Index  int     `json:"index"`
	Inputs []TxIn  `json:"inputs"`
	Outputs []TxOut `json:"outputs"`
}

// Block is the block view returned by getBlock (§4.3).
type Block struct {
	Height       uint32  `json:"height"`
	Hash         string  `json:"hash"`
	PrevBlock    string  `json:"prevBlock"`
	NextHash     string  `json:"nextHash,omitempty"`
	Difficulty   float64 `json:"difficulty"`
	Time         int64   `json:"time"`
	MedianTime   int64   `json:"medianTime"`
	Bits         uint32  `json:"bits"`
	Txs          int     `json:"txs"`
	Miner        string  `json:"miner"`
	MinerAddress string  `json:"minerAddress"`
	Reward       int64   `json:"reward"`
	Fees         int64   `json:"fees"`
	AverageFee   float64 `json:"averageFee"`
	Transactions []Tx    `json:"transactions,omitempty"`
}

// Bid is one entry of getNameBids (§4.3).
type Bid struct {
	Txid      string `json:"txid"`
	Index     uint32 `json:"index"`
	Lockup    int64  `json:"lockup"`
	Time      int64  `json:"time"`
	Revealed  bool   `json:"revealed"`
	RevealTxid  string `json:"revealTxid,omitempty"`
	RevealIndex uint32 `json:"revealIndex,omitempty"`
	Value     int64  `json:"value"`
	Win       bool   `json:"win"`
}

// HistoryEvent is one entry of getNameHistory (§4.3).
type HistoryEvent struct {
	Txid   string `json:"txid"`
	Index  uint32 `json:"index"`
	Height uint32 `json:"height"`
	Time   int64  `json:"time"`
	Action string `json:"action"`
	Value  int64  `json:"value,omitempty"`
}

// NameInfo is the getName response (§4.3).
type NameInfo struct {
	Name       string `json:"name"`
	NameHash   string `json:"nameHash"`
	State      string `json:"state"`
	NextState  string `json:"nextState"`
	Height     uint32 `json:"height"`
	RenewalHeight uint32 `json:"renewalHeight"`
	Renewals   int    `json:"renewals"`
	Weak       bool   `json:"weak"`
	Transfer   uint32 `json:"transfer"`
	Revoked    uint32 `json:"revoked"`
	Highest    int64  `json:"highest"`
	Value      int64  `json:"value"`
	Bids       []Bid  `json:"bids"`
}

// Balance is the getAddress response (§4.3 / §6.1).
type Balance struct {
	Hash        string `json:"hash"`
	Confirmed   int64  `json:"confirmed"`
	Unconfirmed int64  `json:"unconfirmed"`
	Received    int64  `json:"received"`
	Spent       int64  `json:"spent"`
}

// PoolDistribution is the §6.1 /pool/distribution response.
type PoolDistribution struct {
	Total int64              `json:"total"`
	Items []PoolDistItem     `json:"items"`
}

// PoolDistItem is one entry of PoolDistribution.
type PoolDistItem struct {
	PoolName string `json:"poolName"`
	URL      string `json:"url"`
	Count    int64  `json:"count"`
}

// SeriesPoint is one entry of getSeries (§4.3).
type SeriesPoint struct {
	Date  int64   `json:"date"`
	Value float64 `json:"value"`
}

// SummaryCounts is the §6.1 /summary response.
type SummaryCounts struct {
	Network          string  `json:"network"`
	ChainWork        string  `json:"chainWork"`
	Difficulty       float64 `json:"difficulty"`
	Hashrate         float64 `json:"hashrate"`
	Unconfirmed      int     `json:"unconfirmed"`
	UnconfirmedSize  int     `json:"unconfirmedSize"`
	RegisteredNames  int64   `json:"registeredNames"`
}

// Status is the §6.1 /status response.
type Status struct {
	Host           string  `json:"host"`
	Port           int     `json:"port"`
	Key            string  `json:"key"`
	Network        string  `json:"network"`
	Progress       float64 `json:"progress"`
	Version        string  `json:"version"`
	Agent          string  `json:"agent"`
	Connections    int     `json:"connections"`
	Height         uint32  `json:"height"`
	Difficulty     float64 `json:"difficulty"`
	Uptime         int64   `json:"uptime"`
	TotalBytesRecv int64   `json:"totalBytesRecv"`
	TotalBytesSent int64   `json:"totalBytesSent"`
}

// SearchHit is one entry of the search response (§6.1).
type SearchHit struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// GeoIP is one entry of the §6.1 /mapdata response.
type GeoIP struct {
	Host      string  `json:"host"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

