package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Domenick1991/gdsbooking/internal/domain"
	"github.com/jackc/pgx/v5"
)

// PGOfferRepository keeps offer sets and priced offers in Postgres, one row
// per owner in each table.
type PGOfferRepository struct {
	db DB
}

func NewOfferRepository(db DB) *PGOfferRepository {
	return &PGOfferRepository{db: db}
}

func (r *PGOfferRepository) SaveOffers(ctx context.Context, set *domain.OfferSet) error {
	payload, err := json.Marshal(set.Offers)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO offer_sets (owner_id, offers, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET offers = EXCLUDED.offers, created_at = EXCLUDED.created_at`,
		set.OwnerID, payload, set.CreatedAt)
	return err
}

func (r *PGOfferRepository) GetOffers(ctx context.Context, ownerID string) (*domain.OfferSet, error) {
	row := r.db.QueryRow(ctx, `SELECT owner_id, offers, created_at FROM offer_sets WHERE owner_id=$1`, ownerID)

	var (
		set     domain.OfferSet
		payload []byte
	)
	if err := row.Scan(&set.OwnerID, &payload, &set.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &set.Offers); err != nil {
		return nil, err
	}
	return &set, nil
}

func (r *PGOfferRepository) SavePriced(ctx context.Context, priced *domain.PricedOffer) error {
	payload, err := json.Marshal(priced.Offer)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO priced_offers (owner_id, offer, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (owner_id) DO UPDATE SET offer = EXCLUDED.offer, created_at = EXCLUDED.created_at`,
		priced.OwnerID, payload, priced.CreatedAt)
	return err
}

func (r *PGOfferRepository) GetPriced(ctx context.Context, ownerID string) (*domain.PricedOffer, error) {
	row := r.db.QueryRow(ctx, `SELECT owner_id, offer, created_at FROM priced_offers WHERE owner_id=$1`, ownerID)

	var (
		priced  domain.PricedOffer
		payload []byte
	)
	if err := row.Scan(&priced.OwnerID, &payload, &priced.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(payload, &priced.Offer); err != nil {
		return nil, err
	}
	return &priced, nil
}

var (
	_ OfferRepository       = (*PGOfferRepository)(nil)
	_ PricedOfferRepository = (*PGOfferRepository)(nil)
)
