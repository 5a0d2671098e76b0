package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bdp-api/helper/internal/models"
	"github.com/bdp-api/helper/internal/modules/directory/registry"
	"github.com/bdp-api/helper/internal/modules/directory/taxonomy"
	"github.com/bdp-api/helper/internal/pkg/apperr"
	"go.uber.org/zap"
)

// Storage errors the content store reports.
var (
	ErrListingNotFound = errors.New("listing not found")
	// ErrDuplicateTitle is returned by Create and UpdateCore when another
	// listing already holds the title.
	ErrDuplicateTitle = errors.New("duplicate listing title")
)

// Listing is the content-store projection of a directory entry.
type Listing struct {
	ID              uint   `json:"id"`
	Title           string `json:"title"`
	Status          string `json:"status"`
	AuthorID        string `json:"-"`
	FeaturedMediaID uint   `json:"-"`
}

// ContentStore is the storage engine listings live in. Each call commits on
// its own; nothing spans calls.
type ContentStore interface {
	// FindByTitle returns nil, nil when no listing has exactly this title.
	FindByTitle(ctx context.Context, title string) (*Listing, error)
	Get(ctx context.Context, id uint) (*Listing, error)
	Create(ctx context.Context, l Listing) (uint, error)
	UpdateCore(ctx context.Context, id uint, title, status *string) error
	GetMeta(ctx context.Context, id uint, key string) (value interface{}, found bool, err error)
	SetMeta(ctx context.Context, id uint, key string, value interface{}) error
	SetTerms(ctx context.Context, id uint, taxonomy string, termIDs []uint) error
	SetFeaturedMedia(ctx context.Context, id, mediaID uint) error
	AttachmentExists(ctx context.Context, id uint) (bool, error)
}

// FieldSource yields the current registry snapshot.
type FieldSource interface {
	Snapshot() *registry.Snapshot
}

// TermSource yields the current term lookups, failing before the first preload.
type TermSource interface {
	Current() (*taxonomy.Lookups, error)
}

// Result is the outcome of a successful create or update.
type Result struct {
	Success  bool           `json:"success"`
	EntityID uint           `json:"entity_id"`
	Listing  Listing        `json:"-"`
	Changes  []ChangeRecord `json:"changes"`
}

// Service runs the normalize, validate and mutate pipeline.
type Service struct {
	store  ContentStore
	fields FieldSource
	terms  TermSource
	args   *ArgsBuilder
	logger *zap.Logger

	defaultStatus    string
	coerceScalarTags bool
}

type Option func(*Service)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaultStatus sets the status of listings created without one.
func WithDefaultStatus(status string) Option {
	return func(s *Service) {
		if status != "" {
			s.defaultStatus = status
		}
	}
}

// WithCoerceScalarTags lets a bare tag string stand for a one-element list.
func WithCoerceScalarTags(on bool) Option {
	return func(s *Service) { s.coerceScalarTags = on }
}

// WithArgsBuilder shares a builder that is also kept fresh by registry swaps.
func WithArgsBuilder(b *ArgsBuilder) Option {
	return func(s *Service) {
		if b != nil {
			s.args = b
		}
	}
}

func NewService(store ContentStore, fields FieldSource, terms TermSource, opts ...Option) *Service {
	s := &Service{
		store:         store,
		fields:        fields,
		terms:         terms,
		args:          NewArgsBuilder(),
		logger:        zap.NewNop(),
		defaultStatus: models.ListingStatusPending,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("ListingService")
	return s
}

// Env captures the current snapshots for one request.
func (s *Service) Env() (Env, error) {
	lookups, err := s.terms.Current()
	if err != nil {
		return Env{}, taxonomy.NotReadyError(err)
	}
	snap := s.fields.Snapshot()
	return Env{
		Fields:           snap,
		Terms:            lookups,
		Args:             s.args.For(snap),
		CoerceScalarTags: s.coerceScalarTags,
	}, nil
}

// Shapes returns the argument shapes for route against the current registry.
func (s *Service) Shapes(route Route) map[string]ArgSpec {
	return s.args.For(s.fields.Snapshot()).For(route)
}

// Prepare normalizes and validates a raw request.
func (s *Service) Prepare(raw map[string]interface{}, route Route) (*CleanPayload, error) {
	env, err := s.Env()
	if err != nil {
		return nil, s.fail(err, zap.String("route", string(route)))
	}
	p, err := Normalize(raw, route, env)
	if err != nil {
		return nil, s.fail(err, zap.String("route", string(route)), zap.String("stage", "normalize"))
	}
	clean, err := Validate(p, env)
	if err != nil {
		return nil, s.fail(err, zap.String("route", string(route)), zap.String("stage", "validate"))
	}
	return clean, nil
}

// Create validates raw and inserts a new listing owned by authorID.
func (s *Service) Create(ctx context.Context, raw map[string]interface{}, authorID string) (*Result, error) {
	clean, err := s.Prepare(raw, RouteCreate)
	if err != nil {
		return nil, err
	}
	return s.ApplyCreate(ctx, clean, authorID)
}

// Update validates raw and applies it to the listing named by its id.
func (s *Service) Update(ctx context.Context, raw map[string]interface{}) (*Result, error) {
	clean, err := s.Prepare(raw, RouteUpdate)
	if err != nil {
		return nil, err
	}
	return s.ApplyUpdate(ctx, clean)
}

// ApplyCreate writes the entity, then the featured image, meta and terms.
// A failed write stops the sequence; earlier writes stay.
func (s *Service) ApplyCreate(ctx context.Context, p *CleanPayload, authorID string) (*Result, error) {
	title := ""
	if p.System.Title != nil {
		title = strings.TrimSpace(*p.System.Title)
	}
	if title == "" {
		return nil, s.fail(apperr.BadRequest(apperr.CodeMissingTitle, "Title is required."))
	}
	if err := s.checkImage(ctx, p.System.FeaturedImage); err != nil {
		return nil, err
	}

	existing, err := s.store.FindByTitle(ctx, title)
	if err != nil {
		return nil, s.fail(apperr.Internal(apperr.CodeInsertFailed, "Could not check for duplicate titles.", err),
			zap.String("title", title))
	}
	if existing != nil {
		return nil, s.fail(duplicateTitle(existing), zap.String("title", title))
	}

	status := s.defaultStatus
	if p.System.Status != nil {
		status = *p.System.Status
	}
	l := Listing{Title: title, Status: status, AuthorID: authorID}
	id, err := s.store.Create(ctx, l)
	if errors.Is(err, ErrDuplicateTitle) {
		if existing, _ := s.store.FindByTitle(ctx, title); existing != nil {
			return nil, s.fail(duplicateTitle(existing), zap.String("title", title))
		}
		return nil, s.fail(apperr.Conflict(apperr.CodeDuplicateTitle, "A listing with this title already exists."),
			zap.String("title", title))
	}
	if err != nil {
		return nil, s.fail(apperr.Internal(apperr.CodeInsertFailed, "Failed to create listing.", err),
			zap.String("title", title))
	}
	l.ID = id

	res := &Result{Success: true, EntityID: id}
	res.Changes = append(res.Changes,
		ChangeRecord{Field: KeyTitle, Value: title},
		ChangeRecord{Field: KeyStatus, Value: status})

	if img := p.System.FeaturedImage; img != nil {
		if err := s.store.SetFeaturedMedia(ctx, id, *img); err != nil {
			return nil, s.fail(apperr.Internal(apperr.CodeUpdateFailed, "Failed to set featured image.", err),
				zap.Uint("listing_id", id))
		}
		l.FeaturedMediaID = *img
		res.Changes = append(res.Changes, ChangeRecord{Field: KeyFeaturedImage, Value: *img})
	}

	for _, mv := range p.Meta {
		if err := s.store.SetMeta(ctx, id, registry.MetaKey(mv.Field.ID), mv.Value); err != nil {
			return nil, s.fail(apperr.Internal(apperr.CodeUpdateFailed, "Failed to update "+mv.Field.Shortname+".", err),
				zap.Uint("listing_id", id), zap.String("field", mv.Field.Shortname))
		}
		res.Changes = append(res.Changes, ChangeRecord{Field: mv.Field.Shortname, Value: mv.Value})
	}

	changes, err := s.writeTerms(ctx, id, p)
	if err != nil {
		return nil, err
	}
	res.Changes = append(res.Changes, changes...)
	res.Listing = l

	s.logger.Info("listing created", zap.Uint("listing_id", id), zap.String("title", title),
		zap.Int("changes", len(res.Changes)))
	return res, nil
}

// ApplyUpdate writes only the system fields and meta values that differ from
// what is stored. Term groups that are present are always rewritten.
func (s *Service) ApplyUpdate(ctx context.Context, p *CleanPayload) (*Result, error) {
	if p.System.ID == nil || *p.System.ID == 0 {
		return nil, s.fail(apperr.NotFound(apperr.CodeInvalidPost, "Invalid listing ID."))
	}
	id := *p.System.ID
	current, err := s.store.Get(ctx, id)
	if errors.Is(err, ErrListingNotFound) {
		return nil, s.fail(apperr.NotFound(apperr.CodeInvalidPost, "Invalid listing ID.").With("post_id", id),
			zap.Uint("listing_id", id))
	}
	if err != nil {
		return nil, s.fail(apperr.Internal(apperr.CodeUpdateFailed, "Failed to load listing.", err),
			zap.Uint("listing_id", id))
	}
	if err := s.checkImage(ctx, p.System.FeaturedImage); err != nil {
		return nil, err
	}

	res := &Result{Success: true, EntityID: id}

	var title, status *string
	if t := p.System.Title; t != nil {
		if v := strings.TrimSpace(*t); v != "" && v != current.Title {
			title = &v
		}
	}
	if st := p.System.Status; st != nil && *st != current.Status {
		status = st
	}
	if title != nil || status != nil {
		err := s.store.UpdateCore(ctx, id, title, status)
		if errors.Is(err, ErrDuplicateTitle) && title != nil {
			if existing, _ := s.store.FindByTitle(ctx, *title); existing != nil {
				return nil, s.fail(duplicateTitle(existing), zap.Uint("listing_id", id))
			}
			return nil, s.fail(apperr.Conflict(apperr.CodeDuplicateTitle, "A listing with this title already exists."),
				zap.Uint("listing_id", id))
		}
		if err != nil {
			return nil, s.fail(apperr.Internal(apperr.CodeUpdateFailed, "Failed to update listing.", err),
				zap.Uint("listing_id", id))
		}
		if title != nil {
			current.Title = *title
			res.Changes = append(res.Changes, ChangeRecord{Field: KeyTitle, Value: *title})
		}
		if status != nil {
			current.Status = *status
			res.Changes = append(res.Changes, ChangeRecord{Field: KeyStatus, Value: *status})
		}
	}

	if img := p.System.FeaturedImage; img != nil && *img != current.FeaturedMediaID {
		if err := s.store.SetFeaturedMedia(ctx, id, *img); err != nil {
			return nil, s.fail(apperr.Internal(apperr.CodeUpdateFailed, "Failed to set featured image.", err),
				zap.Uint("listing_id", id))
		}
		current.FeaturedMediaID = *img
		res.Changes = append(res.Changes, ChangeRecord{Field: KeyFeaturedImage, Value: *img})
	}

	for _, mv := range p.Meta {
		key := registry.MetaKey(mv.Field.ID)
		stored, found, err := s.store.GetMeta(ctx, id, key)
		if err != nil {
			return nil, s.fail(apperr.Internal(apperr.CodeUpdateFailed, "Failed to read "+mv.Field.Shortname+".", err),
				zap.Uint("listing_id", id), zap.String("field", mv.Field.Shortname))
		}
		if found && sameValue(stored, mv.Value) {
			s.logger.Debug("meta unchanged, skip write",
				zap.Uint("listing_id", id), zap.String("field", mv.Field.Shortname))
			continue
		}
		if err := s.store.SetMeta(ctx, id, key, mv.Value); err != nil {
			return nil, s.fail(apperr.Internal(apperr.CodeUpdateFailed, "Failed to update "+mv.Field.Shortname+".", err),
				zap.Uint("listing_id", id), zap.String("field", mv.Field.Shortname))
		}
		res.Changes = append(res.Changes, ChangeRecord{Field: mv.Field.Shortname, Value: mv.Value})
	}

	changes, err := s.writeTerms(ctx, id, p)
	if err != nil {
		return nil, err
	}
	res.Changes = append(res.Changes, changes...)
	res.Listing = *current

	s.logger.Info("listing updated", zap.Uint("listing_id", id), zap.Int("changes", len(res.Changes)))
	return res, nil
}

func (s *Service) writeTerms(ctx context.Context, id uint, p *CleanPayload) ([]ChangeRecord, error) {
	var changes []ChangeRecord
	groups := []struct {
		present bool
		field   string
		kind    taxonomy.Kind
		ids     []uint
		code    string
	}{
		{p.RegionsPresent, "regions", taxonomy.KindRegion, p.RegionTermIDs(), apperr.CodeUpdateFailed},
		{p.CategoriesPresent, KeyCategories, taxonomy.KindCategory, p.Categories, apperr.CodeUpdateFailed},
		{p.TagsPresent, KeyTags, taxonomy.KindTag, p.Tags, apperr.CodeTagUpdateFailed},
	}
	for _, g := range groups {
		if !g.present {
			continue
		}
		ids := g.ids
		if ids == nil {
			ids = []uint{}
		}
		if err := s.store.SetTerms(ctx, id, g.kind.Taxonomy(), ids); err != nil {
			return nil, s.fail(apperr.Internal(g.code, "Failed to update "+g.field+".", err),
				zap.Uint("listing_id", id), zap.String("field", g.field))
		}
		changes = append(changes, ChangeRecord{Field: g.field, Value: ids})
	}
	return changes, nil
}

func (s *Service) checkImage(ctx context.Context, img *uint) error {
	if img == nil {
		return nil
	}
	ok, err := s.store.AttachmentExists(ctx, *img)
	if err != nil {
		return s.fail(apperr.Internal(apperr.CodeUpdateFailed, "Failed to look up featured image.", err),
			zap.Uint("featured_image", *img))
	}
	if !ok {
		return s.fail(apperr.NotFound(apperr.CodeInvalidImage, "Invalid image ID.").With("featured_image", *img),
			zap.Uint("featured_image", *img))
	}
	return nil
}

// fail logs err with its code and returns it unchanged.
func (s *Service) fail(err error, fields ...zap.Field) error {
	ae, ok := apperr.As(err)
	if !ok {
		s.logger.Error("listing pipeline failed", append(fields, zap.Error(err))...)
		return err
	}
	fields = append(fields, zap.String("code", ae.Code))
	for k, v := range ae.Extra {
		fields = append(fields, zap.Any(k, v))
	}
	if ae.Status >= http.StatusInternalServerError {
		s.logger.Error(ae.Message, append(fields, zap.Error(ae.Unwrap()))...)
	} else {
		s.logger.Warn(ae.Message, fields...)
	}
	return err
}

func duplicateTitle(existing *Listing) *apperr.Error {
	return apperr.Conflict(apperr.CodeDuplicateTitle, fmt.Sprintf("A listing titled %q already exists.", existing.Title)).
		With("existing_id", existing.ID).
		With("existing_status", existing.Status)
}

// sameValue compares two meta values by their JSON encoding, so that a stored
// "5" and a submitted 5 differ but decoded and native arrays match.
func sameValue(a, b interface{}) bool {
	ja, err := json.Marshal(a)
	if err != nil {
		return false
	}
	jb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ja, jb)
}
