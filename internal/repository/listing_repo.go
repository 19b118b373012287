package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/VinayBibyan/Donation-Network/internal/models"
	"github.com/jackc/pgx/v5"
)

// listingTable maps a listing kind onto its postgres table. Items and needs
// keep the column names of their own domain.
type listingTable struct {
	name  string
	facet string
	owner string
	open  string
}

var (
	itemsTable = listingTable{name: "items", facet: "condition", owner: "owner_id", open: "is_available"}
	needsTable = listingTable{name: "needs", facet: "urgency", owner: "requester_id", open: "is_active"}
)

func tableFor(kind models.ListingKind) listingTable {
	if kind.Name == models.NeedKind.Name {
		return needsTable
	}
	return itemsTable
}

func (t listingTable) columns() string {
	return fmt.Sprintf(
		"id, title, description, category, %s, image, %s, location, %s, created_at, updated_at",
		t.facet, t.owner, t.open,
	)
}

// buildListingQuery translates a filter into a SELECT over the kind's table.
// The result must select exactly what models.ListingFilter.Matches accepts.
func buildListingQuery(t listingTable, filter models.ListingFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.OpenOnly {
		conditions = append(conditions, t.open+" = TRUE")
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, t.owner+" = "+arg(filter.OwnerID))
	}
	if filter.Category != "" {
		conditions = append(conditions, "category = "+arg(filter.Category))
	}
	if filter.Facet != "" {
		conditions = append(conditions, t.facet+" = "+arg(filter.Facet))
	}
	if filter.Search != "" {
		p := arg(filter.Search)
		conditions = append(conditions, fmt.Sprintf(
			"(strpos(lower(title), lower(%s)) > 0 OR strpos(lower(description), lower(%s)) > 0)", p, p,
		))
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(t.columns())
	b.WriteString(" FROM ")
	b.WriteString(t.name)
	if len(conditions) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conditions, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC, id DESC")

	return b.String(), args
}

type ListingRepository struct {
	db    DBTX
	kind  models.ListingKind
	table listingTable
}

func NewListingRepository(db DBTX, kind models.ListingKind) *ListingRepository {
	return &ListingRepository{db: db, kind: kind, table: tableFor(kind)}
}

func (r *ListingRepository) Kind() models.ListingKind {
	return r.kind
}

func (r *ListingRepository) scan(row pgx.Row) (*models.Listing, error) {
	listing := models.Listing{Kind: r.kind}
	err := row.Scan(
		&listing.ID,
		&listing.Title,
		&listing.Description,
		&listing.Category,
		&listing.Facet,
		&listing.Image,
		&listing.OwnerID,
		&listing.Location,
		&listing.Open,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		return nil, translatePgError(err)
	}
	return &listing, nil
}

func (r *ListingRepository) Create(ctx context.Context, listing *models.Listing) error {
	listing.ID = newID()
	listing.Kind = r.kind
	listing.CreatedAt = now()
	listing.UpdatedAt = listing.CreatedAt

	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, r.table.name, r.table.columns())

	_, err := r.db.Exec(ctx, query,
		listing.ID,
		listing.Title,
		listing.Description,
		listing.Category,
		listing.Facet,
		listing.Image,
		listing.OwnerID,
		listing.Location,
		listing.Open,
		listing.CreatedAt,
		listing.UpdatedAt,
	)
	return translatePgError(err)
}

func (r *ListingRepository) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, r.table.columns(), r.table.name)
	return r.scan(r.db.QueryRow(ctx, query, id))
}

func (r *ListingRepository) List(ctx context.Context, filter models.ListingFilter) ([]models.Listing, error) {
	query, args := buildListingQuery(r.table, filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	listings := make([]models.Listing, 0)
	for rows.Next() {
		listing, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		listings = append(listings, *listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return listings, nil
}

func (r *ListingRepository) Update(ctx context.Context, listing *models.Listing) error {
	listing.UpdatedAt = now()
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $2, description = $3, category = $4, %s = $5,
		    image = $6, location = $7, %s = $8, updated_at = $9
		WHERE id = $1
	`, r.table.name, r.table.facet, r.table.open)

	tag, err := r.db.Exec(ctx, query,
		listing.ID,
		listing.Title,
		listing.Description,
		listing.Category,
		listing.Facet,
		listing.Image,
		listing.Location,
		listing.Open,
		listing.UpdatedAt,
	)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table.name), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
