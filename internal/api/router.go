package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/hnsexplorer/indexer/internal/hns"
	"github.com/hnsexplorer/indexer/internal/query"
	"github.com/hnsexplorer/indexer/pkg/config"
	"github.com/hnsexplorer/indexer/pkg/logging"
)

// Router wires the Query Engine (D) to the §6.1 HTTP surface.
type Router struct {
	engine *query.Engine
	cfg    *config.Config
	logger *zap.Logger
}

// NewRouter creates a new API router over the Query Engine.
func NewRouter(engine *query.Engine, cfg *config.Config) *Router {
	return &Router{
		engine: engine,
		cfg:    cfg,
		logger: logging.GetLogger().With(zap.String("component", "api-router")),
	}
}

// SetupRoutes registers every §6.1 endpoint plus the health routes on g.
// /metrics is registered separately by cmd/server.
func (r *Router) SetupRoutes(g *gin.Engine) {
	if r.cfg.HTTP.CORS {
		g.Use(ginCORS())
	}

	g.GET("/health", r.health)
	g.GET("/.well-known/healthcheck.json", r.health)

	api := g.Group("/")
	if !r.cfg.HTTP.NoAuth && r.cfg.HTTP.APIKey != "" && !config.IsLoopback(r.cfg.HTTP.Host) {
		api.Use(r.basicAuth())
	}

	api.GET("/summary", r.getSummary)
	api.GET("/status", r.getStatus)
	api.GET("/mempool", r.getMempool)
	api.GET("/blocks", r.getBlocks)
	api.GET("/blocks/:height", r.getBlockByHeight)
	api.GET("/txs", r.getTxs)
	api.GET("/txs/:hash", r.getTxByHash)
	api.GET("/names", r.getNames)
	api.GET("/names/:name", r.getName)
	api.GET("/names/:name/history", r.getNameHistory)
	api.GET("/addresses/:hash", r.getAddress)
	api.GET("/address/:hash/mempool", r.getAddressMempool)
	api.GET("/peers", r.getPeers)
	api.GET("/search", r.search)
	api.GET("/charts/:type", r.getChart)
	api.GET("/pool/distribution", r.getPoolDistribution)
	api.GET("/mapdata", r.getMapData)
}

func ginCORS() gin.HandlerFunc {
	c := cors.AllowAll()
	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(204)
			return
		}
		ctx.Next()
	}
}

// basicAuth enforces HTTP Basic auth with password = apiKey (§6.1).
// SetupRoutes skips it for loopback hosts, for no-auth, and when no API key
// is configured.
func (r *Router) basicAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		_, password, ok := c.Request.BasicAuth()
		if !ok || password != r.cfg.HTTP.APIKey {
			c.Header("WWW-Authenticate", `Basic realm="hns-explorer"`)
			renderError(c, NewInputError("unauthorized", "invalid credentials"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *Router) health(c *gin.Context) {
	c.JSON(200, gin.H{"status": "OK", "service": "hns-explorer"})
}

func (r *Router) getSummary(c *gin.Context) {
	counts, err := r.engine.GetSummaryCounts(c.Request.Context())
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, counts)
}

func (r *Router) getStatus(c *gin.Context) {
	st, err := r.engine.GetStatus(c.Request.Context(), r.cfg.HTTP.Host, r.cfg.HTTP.Port, r.cfg.HTTP.APIKey)
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, st)
}

func (r *Router) getMempool(c *gin.Context) {
	limit := queryInt(c, "limit", 25, 200)
	offset := queryInt(c, "offset", 0, 1<<31-1)
	page, err := r.engine.GetMempoolPage(c.Request.Context(), offset, limit)
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, page)
}

func (r *Router) getBlocks(c *gin.Context) {
	limit := queryInt(c, "limit", 25, 50)
	offset := queryInt(c, "offset", 0, 1<<31-1)
	// offset is "blocks from the tip" (§6.1): translate to an absolute
	// height range against the query engine's height-indexed getBlock.
	blocks := make([]*query.Block, 0, limit)
	tip, err := r.tipHeight(c)
	if !r.ok(c, err) {
		return
	}
	total := int64(tip) + 1
	if int64(offset) > int64(tip) {
		renderError(c, NewInputError("offset_out_of_range", "offset beyond tip"))
		return
	}
	start := int64(tip) - int64(offset)
	for h := start; h >= 0 && len(blocks) < limit; h-- {
		b, err := r.engine.GetBlock(c.Request.Context(), uint32(h), false)
		if err != nil {
			renderError(c, classify(err))
			return
		}
		if b != nil {
			blocks = append(blocks, b)
		}
	}
	c.JSON(200, query.Page[*query.Block]{Total: total, Limit: limit, Offset: offset, Result: blocks})
}

func (r *Router) tipHeight(c *gin.Context) (uint32, error) {
	st, err := r.engine.GetStatus(c.Request.Context(), "", 0, "")
	if err != nil {
		return 0, err
	}
	return st.Height, nil
}

func (r *Router) getBlockByHeight(c *gin.Context) {
	height, err := strconv.ParseUint(c.Param("height"), 10, 32)
	if err != nil {
		renderError(c, NewInputError("bad_height", "height must be numeric"))
		return
	}
	b, qerr := r.engine.GetBlock(c.Request.Context(), uint32(height), true)
	if !r.ok(c, qerr) {
		return
	}
	if b == nil {
		renderError(c, NewNotFoundError("block_not_found", "no block at that height"))
		return
	}
	c.JSON(200, b)
}

func (r *Router) getTxs(c *gin.Context) {
	limit := queryInt(c, "limit", 25, 50)
	offset := queryInt(c, "offset", 0, 1<<31-1)
	ctx := c.Request.Context()

	if h := c.Query("height"); h != "" {
		height, err := strconv.ParseUint(h, 10, 32)
		if err != nil {
			renderError(c, NewInputError("bad_height", "height must be numeric"))
			return
		}
		page, err := r.engine.GetTransactionsByHeight(ctx, uint32(height), offset, limit)
		if !r.ok(c, err) {
			return
		}
		c.JSON(200, page)
		return
	}

	if addr := c.Query("address"); addr != "" {
		page, err := r.engine.GetTransactionsByAddress(ctx, addr, offset, limit)
		if !r.ok(c, err) {
			return
		}
		c.JSON(200, page)
		return
	}

	txs, err := r.engine.GetTransactions(ctx, limit)
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, query.Page[query.Tx]{Total: int64(len(txs)), Limit: limit, Offset: 0, Result: txs})
}

func (r *Router) getTxByHash(c *gin.Context) {
	tx, err := r.engine.GetTransaction(c.Request.Context(), c.Param("hash"))
	if !r.ok(c, err) {
		return
	}
	if tx == nil {
		renderError(c, NewNotFoundError("tx_not_found", "no transaction with that hash"))
		return
	}
	c.JSON(200, tx)
}

func (r *Router) getNames(c *gin.Context) {
	limit := queryInt(c, "limit", 25, 50)
	offset := queryInt(c, "offset", 0, 1<<31-1)
	page, err := r.engine.GetNames(c.Request.Context(), c.Query("type"), c.Query("status"), offset, limit)
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, page)
}

func (r *Router) getName(c *gin.Context) {
	info, err := r.engine.GetName(c.Request.Context(), c.Param("name"))
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, info)
}

func (r *Router) getNameHistory(c *gin.Context) {
	limit := queryInt(c, "limit", 25, 50)
	offset := queryInt(c, "offset", 0, 1<<31-1)
	nameHash := hns.NameHash(c.Param("name"))
	page, err := r.engine.GetNameHistory(c.Request.Context(), nameHash, offset, limit)
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, page)
}

func (r *Router) getAddress(c *gin.Context) {
	bal, err := r.engine.GetAddress(c.Request.Context(), c.Param("hash"))
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, bal)
}

func (r *Router) getAddressMempool(c *gin.Context) {
	// The upstream node's mempool has no address index to filter against.
	c.JSON(200, []query.Tx{})
}

func (r *Router) getPeers(c *gin.Context) {
	limit := queryInt(c, "limit", 25, 1000)
	page := queryInt(c, "page", 1, 1<<31-1)
	offset := (page - 1) * limit
	result, err := r.engine.GetPeers(c.Request.Context(), offset, limit)
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, result)
}

func (r *Router) search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		renderError(c, NewInputError("missing_query", "q is required"))
		return
	}
	c.JSON(200, r.engine.Search(c.Request.Context(), q))
}

func (r *Router) getChart(c *gin.Context) {
	typ := c.Param("type")
	start := queryInt64(c, "startTime", 0)
	end := queryInt64(c, "endTime", 1<<62)
	points, err := r.engine.GetSeries(c.Request.Context(), typ, start, end)
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, points)
}

func (r *Router) getPoolDistribution(c *gin.Context) {
	start := queryInt64(c, "startTime", 0)
	end := queryInt64(c, "endTime", 1<<62)
	dist, err := r.engine.GetPoolDistribution(c.Request.Context(), start, end)
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, dist)
}

func (r *Router) getMapData(c *gin.Context) {
	geo, err := r.engine.GetPeersLocation(c.Request.Context())
	if !r.ok(c, err) {
		return
	}
	c.JSON(200, geo)
}

// ok renders err per the §7 taxonomy and reports whether the caller should
// continue rendering a success body.
func (r *Router) ok(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	renderError(c, classify(err))
	return false
}

func classify(err error) *Error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if errors.Is(err, query.ErrInvalidParam) {
		return NewInputError("invalid_parameter", err.Error())
	}
	return NewTransientError("query_failed", err.Error())
}

func renderError(c *gin.Context, e *Error) {
	c.JSON(e.Status(), gin.H{"error": gin.H{"type": e.Class, "code": e.Code, "message": e.Message}})
}

func queryInt(c *gin.Context, key string, def, max int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func queryInt64(c *gin.Context, key string, def int64) int64 {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
