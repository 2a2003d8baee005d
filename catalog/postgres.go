package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "github.com/lib/pq"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/listingrec/core"
)

// PostgresConfig 是关系库目录的连接配置。
type PostgresConfig struct {
	DSN             string        `koanf:"dsn" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"gte=1"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	QueryTimeout    time.Duration `koanf:"query_timeout"`
	Breaker         BreakerConfig `koanf:"breaker"`
}

// BreakerConfig 是目录存储熔断器配置
type BreakerConfig struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// DefaultPostgresConfig 默认连接池与熔断配置
func DefaultPostgresConfig() PostgresConfig {
	return PostgresConfig{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		QueryTimeout:    30 * time.Second,
		Breaker: BreakerConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// 评分在子查询里按房源聚合，避免与设施/街区 JOIN 后行数膨胀。
// 经纬度存放在 PostGIS geopoint 列中。
const listingSelect = `
SELECT
  l.listing_id,
  l.name,
  l.price,
  l.room_type,
  l.accommodates,
  l.bedrooms,
  l.beds,
  l.bathrooms,
  ST_Y(l.geopoint::geometry) AS lat,
  ST_X(l.geopoint::geometry) AS lng,
  n.name AS neighbourhood,
  r.avg_rating,
  COALESCE(r.review_count, 0) AS review_count
FROM Listing l
LEFT JOIN Neighbourhood n
  ON n.listing_id = l.listing_id
LEFT JOIN (
  SELECT listing_id, AVG(rating) AS avg_rating, COUNT(review_id) AS review_count
  FROM Review
  GROUP BY listing_id
) r
  ON r.listing_id = l.listing_id`

const (
	listAllQuery       = listingSelect + "\nORDER BY l.listing_id;"
	getQuery           = listingSelect + "\nWHERE l.listing_id = $1;"
	listAmenitiesQuery = `SELECT listing_id, amenity FROM ListingAmenity ORDER BY listing_id, amenity;`
	getAmenitiesQuery  = `SELECT amenity FROM ListingAmenity WHERE listing_id = $1 ORDER BY amenity;`
)

// Postgres 是基于 lib/pq 的目录实现，只执行参数化只读查询。
// 所有查询经过熔断器：存储连续失败后快速返回 UNAVAILABLE，而不是堆积超时请求。
type Postgres struct {
	db      *sql.DB
	cfg     PostgresConfig
	breaker *gobreaker.CircuitBreaker[any]
	logger  *slog.Logger
}

// PostgresOption 配置 Postgres
type PostgresOption func(*Postgres)

// WithPostgresLogger 设置日志
func WithPostgresLogger(logger *slog.Logger) PostgresOption {
	return func(p *Postgres) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPostgres 打开连接池并 Ping 一次
func NewPostgres(ctx context.Context, cfg PostgresConfig, opts ...PostgresOption) (*Postgres, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, core.Unavailable(core.ModuleCatalog, fmt.Errorf("failed to ping DB: %w", err))
	}
	return NewPostgresFromDB(db, cfg, opts...), nil
}

// NewPostgresFromDB 复用已有连接池
func NewPostgresFromDB(db *sql.DB, cfg PostgresConfig, opts ...PostgresOption) *Postgres {
	p := &Postgres{db: db, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.breaker = newBreaker("catalog-postgres", cfg.Breaker, p.logger)
	return p
}

func newBreaker(name string, cfg BreakerConfig, logger *slog.Logger) *gobreaker.CircuitBreaker[any] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 5
	}
	return gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// 房源不存在、调用方放弃请求都不是存储故障
		IsSuccessful: func(err error) bool {
			return err == nil || core.IsNotFound(err) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
}

// BreakerState 熔断器当前状态（closed / half-open / open）
func (p *Postgres) BreakerState() string {
	return p.breaker.State().String()
}

// Ping 健康检查
func (p *Postgres) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return core.Unavailable(core.ModuleCatalog, err)
	}
	return nil
}

// Close 关闭连接池
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) ListAll(ctx context.Context) ([]*core.Listing, error) {
	res, err := p.execute(ctx, func(ctx context.Context) (any, error) {
		return p.listAll(ctx)
	})
	if err != nil {
		return nil, err
	}
	return res.([]*core.Listing), nil
}

func (p *Postgres) Get(ctx context.Context, id int64) (*core.Listing, error) {
	res, err := p.execute(ctx, func(ctx context.Context) (any, error) {
		return p.get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return res.(*core.Listing), nil
}

// execute 统一处理超时、熔断与错误归类
func (p *Postgres) execute(ctx context.Context, fn func(ctx context.Context) (any, error)) (any, error) {
	if p.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.QueryTimeout)
		defer cancel()
	}
	res, err := p.breaker.Execute(func() (any, error) {
		return fn(ctx)
	})
	switch {
	case err == nil:
		return res, nil
	case core.IsDomainError(err), errors.Is(err, context.Canceled):
		return nil, err
	default:
		// 包括 gobreaker.ErrOpenState / ErrTooManyRequests
		return nil, core.Unavailable(core.ModuleCatalog, err)
	}
}

func (p *Postgres) listAll(ctx context.Context) ([]*core.Listing, error) {
	rows, err := p.db.QueryContext(ctx, listAllQuery)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	var listings []*core.Listing
	byID := make(map[int64]*core.Listing)
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		// 一个房源对应多条街区记录时只取第一条
		if _, dup := byID[l.ID]; dup {
			continue
		}
		byID[l.ID] = l
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	arows, err := p.db.QueryContext(ctx, listAmenitiesQuery)
	if err != nil {
		return nil, fmt.Errorf("query amenities: %w", err)
	}
	defer arows.Close()
	for arows.Next() {
		var (
			id      int64
			amenity sql.NullString
		)
		if err := arows.Scan(&id, &amenity); err != nil {
			return nil, fmt.Errorf("scan amenity: %w", err)
		}
		if l, ok := byID[id]; ok && amenity.Valid {
			l.Amenities = append(l.Amenities, amenity.String)
		}
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("iterate amenities: %w", err)
	}

	p.logger.Debug("catalog loaded from postgres", slog.Int("listings", len(listings)))
	return listings, nil
}

func (p *Postgres) get(ctx context.Context, id int64) (*core.Listing, error) {
	rows, err := p.db.QueryContext(ctx, getQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query listing %d: %w", id, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("query listing %d: %w", id, err)
		}
		return nil, core.ErrListingNotFound
	}
	l, err := scanListing(rows)
	if err != nil {
		return nil, err
	}
	rows.Close()

	arows, err := p.db.QueryContext(ctx, getAmenitiesQuery, id)
	if err != nil {
		return nil, fmt.Errorf("query amenities for %d: %w", id, err)
	}
	defer arows.Close()
	for arows.Next() {
		var amenity sql.NullString
		if err := arows.Scan(&amenity); err != nil {
			return nil, fmt.Errorf("scan amenity: %w", err)
		}
		if amenity.Valid {
			l.Amenities = append(l.Amenities, amenity.String)
		}
	}
	if err := arows.Err(); err != nil {
		return nil, fmt.Errorf("iterate amenities: %w", err)
	}
	return l, nil
}

func scanListing(rows *sql.Rows) (*core.Listing, error) {
	var (
		id                              int64
		name, roomType, neighbourhood   sql.NullString
		price, bathrooms, lat, lng, avg sql.NullFloat64
		accommodates, bedrooms, beds    sql.NullInt64
		reviewCount                     int64
	)
	if err := rows.Scan(&id, &name, &price, &roomType, &accommodates, &bedrooms, &beds,
		&bathrooms, &lat, &lng, &neighbourhood, &avg, &reviewCount); err != nil {
		return nil, fmt.Errorf("scan listing: %w", err)
	}
	return &core.Listing{
		ID:            id,
		Name:          strings.TrimSpace(name.String),
		Price:         optFloat(price),
		RoomType:      strings.TrimSpace(roomType.String),
		Accommodates:  optInt(accommodates),
		Bedrooms:      optInt(bedrooms),
		Beds:          optInt(beds),
		Bathrooms:     optFloat(bathrooms),
		Latitude:      optFloat(lat),
		Longitude:     optFloat(lng),
		AvgRating:     optFloat(avg),
		ReviewCount:   int(reviewCount),
		Neighbourhood: strings.TrimSpace(neighbourhood.String),
	}, nil
}

func optFloat(v sql.NullFloat64) core.Optional[float64] {
	if !v.Valid {
		return core.None[float64]()
	}
	return core.Some(v.Float64)
}

func optInt(v sql.NullInt64) core.Optional[int] {
	if !v.Valid {
		return core.None[int]()
	}
	return core.Some(int(v.Int64))
}

var _ Catalog = (*Postgres)(nil)
