package node

// Entry is a block header entry as returned by the upstream node
// (§4.1's getEntry).
type Entry struct {
	Height     uint32 `json:"height"`
	Hash       string `json:"hash"`
	Time       int64  `json:"time"`
	Bits       uint32 `json:"bits"`
	Chainwork  string `json:"chainwork"`
	PrevBlock  string `json:"prevBlock"`
	MerkleRoot string `json:"merkleRoot"`
}

// Output is a transaction output, with its covenant (if any).
type Output struct {
	Value    int64    `json:"value"`
	Address  Address  `json:"address"`
	Covenant Covenant `json:"covenant"`
}

// Address carries both the bech32 string and raw hash of an output's
// recipient, as the upstream node reports it.
type Address struct {
	Version int    `json:"version"`
	Hash    string `json:"hash"`
	String  string `json:"string"`
}

// Covenant is the raw covenant attached to an output.
type Covenant struct {
	Type  int      `json:"type"`
	Items []string `json:"items"` // hex-encoded items, items[0] is nameHash when present
}

// Input is a transaction input.
type Input struct {
	PrevTxid  string `json:"prevTxid"`
	PrevIndex uint32 `json:"prevIndex"`
	Coinbase  bool   `json:"coinbase"`
}

// Tx is a full transaction as decoded by the node.
type Tx struct {
	Txid    string   `json:"hash"`
	Inputs  []Input  `json:"inputs"`
	Outputs []Output `json:"outputs"`
}

// Block is a full block, node-decoded.
type Block struct {
	Hash string `json:"hash"`
	Txs  []Tx   `json:"txs"`
}

// View supplies the previous-output values needed to resolve inputs that
// the Block payload alone does not carry coin data for (§4.1's getBlockView).
type View struct {
	// Coins maps "txid:index" to the output it spent, for inputs whose
	// referenced coin isn't already known to the secondary store.
	Coins map[string]Output `json:"coins"`
}

// NameState is the node's authoritative current-state view for a name
// (§4.1's getNameState), distinct from the indexer's cached auction facts.
type NameState struct {
	Name        string `json:"name"`
	NameHash    string `json:"nameHash"`
	State       string `json:"state"`
	Height      uint32 `json:"height"`
	RenewalHeight uint32 `json:"renewalHeight"`
	Renewals    int    `json:"renewals"`
	Weak        bool   `json:"weak"`
	Transfer    uint32 `json:"transfer"`
	Revoked     uint32 `json:"revoked"`
	Highest     int64  `json:"highest"`
	Value       int64  `json:"value"`
}

// TxMeta is transaction metadata + block linkage (§4.1's getMeta).
type TxMeta struct {
	Tx     Tx     `json:"tx"`
	Height uint32 `json:"height"`
	Block  string `json:"block"`
	Time   int64  `json:"time"`
	Index  int    `json:"index"`
}

// Peer describes a connected node peer (§4.3's getPeers).
type Peer struct {
	Host    string `json:"host"`
	Agent   string `json:"agent"`
	Height  uint32 `json:"height"`
	Inbound bool   `json:"inbound"`
}

// MempoolEntry describes a pending transaction (§4.3's getMempoolPage).
type MempoolEntry struct {
	Txid string `json:"hash"`
	Size int    `json:"size"`
	Fee  int64  `json:"fee"`
	Time int64  `json:"time"`
}

// Status mirrors the upstream node's self-reported status (§6.1's /status).
type Status struct {
	Version        string `json:"version"`
	Agent          string `json:"agent"`
	Network        string `json:"network"`
	Height         uint32 `json:"height"`
	Progress       float64 `json:"progress"`
	Connections    int    `json:"connections"`
	Difficulty     float64 `json:"difficulty"`
	Uptime         int64  `json:"uptime"`
	TotalBytesRecv int64  `json:"totalBytesRecv"`
	TotalBytesSent int64  `json:"totalBytesSent"`
}
