// Package service implements the catalog: read/filter operations over
// Product and Offer, normalized to upper-case (spec §4.2), grounded on
// original_source/billable/services/product_service.py.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	catalogdomain "github.com/railzway/billing/internal/catalog/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const offerCacheTTL = 30 * time.Second

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  catalogdomain.Repository
	Cache *redis.Client `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  catalogdomain.Repository
	cache *redis.Client
}

// New constructs the catalog Service for fx wiring.
func New(p Params) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		genID: p.GenID,
		repo:  p.Repo,
		cache: p.Cache,
	}
}

func (s *Service) GetProduct(ctx context.Context, key string) (*catalogdomain.Product, error) {
	key = catalogdomain.Normalize(key)
	p, err := s.repo.FindProductByKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.IsActive {
		return nil, catalogdomain.ErrProductNotFound
	}
	return p, nil
}

func (s *Service) GetProductAnyStatus(ctx context.Context, key string) (*catalogdomain.Product, error) {
	key = catalogdomain.Normalize(key)
	p, err := s.repo.FindProductByKey(ctx, s.db, key)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, catalogdomain.ErrProductNotFound
	}
	return p, nil
}

func (s *Service) ListActiveProducts(ctx context.Context) ([]catalogdomain.Product, error) {
	return s.repo.ListActiveProducts(ctx, s.db)
}

func (s *Service) GetActiveOffer(ctx context.Context, sku string) (*catalogdomain.Offer, error) {
	sku = catalogdomain.Normalize(sku)

	if cached, ok := s.offerFromCache(ctx, sku); ok {
		return cached, nil
	}

	offer, err := s.repo.FindOfferBySKU(ctx, s.db, sku, true)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, catalogdomain.ErrOfferNotFound
	}
	s.cacheOffer(ctx, sku, offer)
	return offer, nil
}

// GetOfferAnyStatus implements the active-then-inactive fallback described
// in spec §4.4 CREATE (and original_source/order_service.py's
// _prepare_order_items), so a re-purchase of a just-deactivated SKU still
// succeeds if the caller already has a quote.
func (s *Service) GetOfferAnyStatus(ctx context.Context, sku string) (*catalogdomain.Offer, error) {
	sku = catalogdomain.Normalize(sku)

	offer, err := s.repo.FindOfferBySKU(ctx, s.db, sku, true)
	if err != nil {
		return nil, err
	}
	if offer != nil {
		return offer, nil
	}

	offer, err = s.repo.FindOfferBySKU(ctx, s.db, sku, false)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, catalogdomain.ErrOfferNotFound
	}
	return offer, nil
}

func (s *Service) GetOfferByID(ctx context.Context, id snowflake.ID) (*catalogdomain.Offer, error) {
	offer, err := s.repo.FindOfferByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if offer == nil {
		return nil, catalogdomain.ErrOfferNotFound
	}
	return offer, nil
}

func (s *Service) ListOffersPreservingOrder(ctx context.Context, skus []string) ([]catalogdomain.Offer, error) {
	normalized := make([]string, 0, len(skus))
	for _, sku := range skus {
		normalized = append(normalized, catalogdomain.Normalize(sku))
	}

	offers, err := s.repo.ListOffersBySKUs(ctx, s.db, normalized)
	if err != nil {
		return nil, err
	}

	bySKU := make(map[string]catalogdomain.Offer, len(offers))
	for _, o := range offers {
		bySKU[o.SKU] = o
	}

	ordered := make([]catalogdomain.Offer, 0, len(normalized))
	for _, sku := range normalized {
		if o, ok := bySKU[sku]; ok {
			ordered = append(ordered, o)
		}
	}
	return ordered, nil
}

func (s *Service) ListActiveOffers(ctx context.Context) ([]catalogdomain.Offer, error) {
	return s.repo.ListActiveOffers(ctx, s.db)
}

func (s *Service) CreateProduct(ctx context.Context, p *catalogdomain.Product) error {
	if p.ProductKey != nil && strings.TrimSpace(*p.ProductKey) == "" {
		p.ProductKey = nil
	}
	if p.ProductKey == nil && p.Name != "" {
		derived := catalogdomain.DeriveKeyFromName(p.Name)
		p.ProductKey = &derived
	}
	if p.ProductKey != nil {
		key := catalogdomain.Normalize(*p.ProductKey)
		p.ProductKey = &key
		if err := s.checkNamespaceFree(ctx, s.db, key); err != nil {
			return err
		}
	}
	if !p.ProductType.Valid() {
		return fmt.Errorf("%w: invalid product_type %q", catalogdomain.ErrProductNotFound, p.ProductType)
	}
	p.ID = s.genID.Generate()
	return s.repo.InsertProduct(ctx, s.db, p)
}

func (s *Service) CreateOffer(ctx context.Context, o *catalogdomain.Offer, items []catalogdomain.OfferItem) (*catalogdomain.Offer, error) {
	o.SKU = catalogdomain.Normalize(o.SKU)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkNamespaceFree(ctx, tx, o.SKU); err != nil {
			return err
		}
		o.ID = s.genID.Generate()
		if err := s.repo.InsertOffer(ctx, tx, o); err != nil {
			return err
		}
		for i := range items {
			items[i].ID = s.genID.Generate()
			items[i].OfferID = o.ID
			if !items[i].PeriodUnit.Valid() {
				return fmt.Errorf("%w: invalid period_unit %q", catalogdomain.ErrOfferNotFound, items[i].PeriodUnit)
			}
			if err := s.repo.InsertOfferItem(ctx, tx, &items[i]); err != nil {
				return err
			}
		}
		o.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// checkNamespaceFree enforces spec §3's invariant that Product.product_key
// and Offer.sku live in one disjoint namespace.
func (s *Service) checkNamespaceFree(ctx context.Context, db *gorm.DB, key string) error {
	exists, err := s.repo.ExistsInSharedNamespace(ctx, db, key)
	if err != nil {
		return err
	}
	if exists {
		return catalogdomain.ErrSharedNamespace
	}
	return nil
}

func (s *Service) offerFromCache(ctx context.Context, sku string) (*catalogdomain.Offer, bool) {
	if s.cache == nil {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, cacheKey(sku)).Bytes()
	if err != nil {
		return nil, false
	}
	var offer catalogdomain.Offer
	if err := json.Unmarshal(raw, &offer); err != nil {
		return nil, false
	}
	return &offer, true
}

func (s *Service) cacheOffer(ctx context.Context, sku string, offer *catalogdomain.Offer) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(offer)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(sku), raw, offerCacheTTL).Err(); err != nil {
		s.log.Debug("offer cache set failed", zap.Error(err), zap.String("sku", sku))
	}
}

func cacheKey(sku string) string {
	return "catalog:offer:" + strings.ToUpper(sku)
}
