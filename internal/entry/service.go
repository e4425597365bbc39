package entry

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"pairdiary/internal/notion"
	"pairdiary/internal/profile"
)

var (
	ErrMissingPageID = errors.New("missing page id")
	ErrEmptyPatch    = errors.New("no fields to update")
	ErrEmptyDate     = errors.New("date cannot be cleared")
	ErrForbidden     = errors.New("not linked to target user")
)

// Store is the upstream content API surface the service depends on.
// *notion.Client satisfies it; tests substitute fakes.
type Store interface {
	QueryDatabase(ctx context.Context, token, databaseID string, q notion.QueryRequest) (*notion.QueryResponse, error)
	CreatePage(ctx context.Context, token string, req notion.CreatePageRequest) (*notion.Page, error)
	UpdatePage(ctx context.Context, token, pageID string, req notion.UpdatePageRequest) (*notion.Page, error)
	GetDatabase(ctx context.Context, token, databaseID string) (*notion.Database, error)
	UpdateDatabase(ctx context.Context, token, databaseID string, properties map[string]any) (*notion.Database, error)
	SearchDatabases(ctx context.Context, token string) ([]notion.Database, error)
}

// ConfigResolver yields a user's store credentials and partner links.
type ConfigResolver interface {
	Resolve(ctx context.Context, userID string) (profile.IntegrationConfig, error)
	Linked(ctx context.Context, callerID, targetID string) (bool, error)
}

// Uploader stores an image payload and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, contentType string, data []byte) (string, error)
}

type Service struct {
	store    Store
	resolver ConfigResolver
	uploader Uploader
	log      *zap.Logger
	now      func() time.Time
}

func NewService(store Store, resolver ConfigResolver, uploader Uploader, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:    store,
		resolver: resolver,
		uploader: uploader,
		log:      log,
		now:      time.Now,
	}
}

const defaultPageSize = 20

type ListInput struct {
	TargetUserID string
	Category     string
	Cursor       string
	PageSize     int
}

type ListResult struct {
	Items      []Entry
	HasMore    bool
	NextCursor string
}

// List returns the target user's entries, newest date first. The cursor is
// an opaque upstream token, forwarded untouched in both directions. Archived
// entries are excluded by the upstream query itself.
func (s *Service) List(ctx context.Context, callerID string, in ListInput) (*ListResult, error) {
	target := in.TargetUserID
	if target == "" {
		target = callerID
	}
	if target != callerID {
		linked, err := s.resolver.Linked(ctx, callerID, target)
		if err != nil {
			return nil, err
		}
		if !linked {
			return nil, ErrForbidden
		}
	}

	cfg, err := s.resolver.Resolve(ctx, target)
	if err != nil {
		return nil, err
	}

	pageSize := in.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = defaultPageSize
	}
	q := notion.QueryRequest{
		Sorts:       []notion.Sort{{Property: canonicalAlias(fieldDate), Direction: "descending"}},
		StartCursor: in.Cursor,
		PageSize:    pageSize,
	}
	if in.Category != "" {
		q.Filter = map[string]any{
			"property": canonicalAlias(fieldCategory),
			"select":   map[string]any{"equals": ParseCategory(in.Category).Tag()},
		}
	}

	resp, err := s.store.QueryDatabase(ctx, cfg.APIKey, cfg.DatabaseID, q)
	if err != nil {
		return nil, err
	}

	out := &ListResult{
		Items:   make([]Entry, 0, len(resp.Results)),
		HasMore: resp.HasMore,
	}
	if resp.NextCursor != nil {
		out.NextCursor = *resp.NextCursor
	}
	for i := range resp.Results {
		out.Items = append(out.Items, entryFromPage(&resp.Results[i]))
	}
	return out, nil
}

type CreateResult struct {
	Entry Entry
	// Warning names the fallback that was needed, when one was.
	Warning string
}

// Create uploads any embedded image payloads, maps the draft and writes it
// upstream, degrading through the fallback ladder on shape rejections.
func (s *Service) Create(ctx context.Context, callerID string, d Draft) (*CreateResult, error) {
	cfg, err := s.resolver.Resolve(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if d.AuthorID == "" {
		d.AuthorID = callerID
	}
	d.Images = s.resolveImages(ctx, d.Images)

	now := s.now()
	page, warning, err := s.createWithFallback(ctx, cfg, d, now)
	if err != nil {
		return nil, err
	}
	return &CreateResult{Entry: entryFromPage(page), Warning: warning}, nil
}

// createWithFallback is the degrading create sequence: canonical mapping,
// then each alternate title alias, then core fields only. Only shape
// rejections advance the ladder; auth, network and server failures propagate
// as-is since no shape variant can fix them.
func (s *Service) createWithFallback(ctx context.Context, cfg profile.IntegrationConfig, d Draft, now time.Time) (*notion.Page, string, error) {
	props := propsFromDraft(d, now)
	req := notion.CreatePageRequest{
		Parent:     notion.Parent{DatabaseID: cfg.DatabaseID},
		Properties: props,
	}
	if cover := coverOf(d.Images); cover != "" {
		req.Cover = notion.ExternalCover(cover)
	}

	page, firstErr := s.store.CreatePage(ctx, cfg.APIKey, req)
	if firstErr == nil {
		return page, "", nil
	}
	if apiErr, ok := notion.AsAPIError(firstErr); !ok || !apiErr.IsShapeRejection() {
		return nil, "", firstErr
	}

	for _, alias := range titleFallbackAliases() {
		retry := req
		retry.Properties = retitled(props, alias)
		page, err := s.store.CreatePage(ctx, cfg.APIKey, retry)
		if err == nil {
			s.log.Warn("entry created under fallback title property", zap.String("alias", alias))
			return page, fmt.Sprintf("title stored under fallback property %q", alias), nil
		}
		if apiErr, ok := notion.AsAPIError(err); !ok || !apiErr.IsShapeRejection() {
			return nil, "", err
		}
	}

	minimal := req
	minimal.Properties = minimalProps(d, now)
	page, finalErr := s.store.CreatePage(ctx, cfg.APIKey, minimal)
	if finalErr != nil {
		return nil, "", fmt.Errorf("all create fallbacks exhausted (first error: %v): %w", firstErr, finalErr)
	}
	s.log.Warn("entry created with core fields only")
	return page, "entry stored with core fields only; optional fields were dropped", nil
}

// Update applies a partial change; omitted fields stay untouched.
func (s *Service) Update(ctx context.Context, callerID, pageID string, p Patch) (*Entry, error) {
	if strings.TrimSpace(pageID) == "" {
		return nil, ErrMissingPageID
	}
	if p.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	// Every entry keeps a date; an explicit empty string is a caller
	// mistake, not a clear.
	if p.Date != nil && strings.TrimSpace(*p.Date) == "" {
		return nil, ErrEmptyDate
	}
	cfg, err := s.resolver.Resolve(ctx, callerID)
	if err != nil {
		return nil, err
	}
	page, err := s.store.UpdatePage(ctx, cfg.APIKey, pageID, notion.UpdatePageRequest{
		Properties: propsFromPatch(p),
	})
	if err != nil {
		return nil, err
	}
	e := entryFromPage(page)
	return &e, nil
}

// Delete archives the entry upstream. Nothing is ever hard-deleted.
func (s *Service) Delete(ctx context.Context, callerID, pageID string) (*Entry, error) {
	if strings.TrimSpace(pageID) == "" {
		return nil, ErrMissingPageID
	}
	cfg, err := s.resolver.Resolve(ctx, callerID)
	if err != nil {
		return nil, err
	}
	archived := true
	page, err := s.store.UpdatePage(ctx, cfg.APIKey, pageID, notion.UpdatePageRequest{
		Archived: &archived,
	})
	if err != nil {
		return nil, err
	}
	e := entryFromPage(page)
	return &e, nil
}

type StoreInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
	Icon  string `json:"icon,omitempty"`
}

// SearchStores lists the databases reachable with the supplied key, so a
// user can pick one while setting up their integration.
func (s *Service) SearchStores(ctx context.Context, apiKey string) ([]StoreInfo, error) {
	dbs, err := s.store.SearchDatabases(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	out := make([]StoreInfo, 0, len(dbs))
	for i := range dbs {
		out = append(out, StoreInfo{
			ID:    dbs[i].ID,
			Title: dbs[i].PlainTitle(),
			URL:   dbs[i].URL,
			Icon:  dbs[i].IconEmoji(),
		})
	}
	return out, nil
}

// EnsureSchema reconciles the database shape; see EnsureSchema in schema.go.
func (s *Service) EnsureSchema(ctx context.Context, apiKey, databaseID string) ([]string, error) {
	return EnsureSchema(ctx, s.store, apiKey, databaseID)
}

// resolveImages uploads embedded data-URI payloads concurrently and keeps
// plain URLs as they are. A failed upload drops that one image and logs it;
// siblings and the parent create continue.
func (s *Service) resolveImages(ctx context.Context, images []string) []string {
	if len(images) == 0 {
		return nil
	}
	resolved := make([]string, len(images))
	var wg sync.WaitGroup
	for i, img := range images {
		if !strings.HasPrefix(img, "data:") {
			resolved[i] = img
			continue
		}
		if s.uploader == nil {
			s.log.Warn("embedded image dropped: no uploader configured")
			continue
		}
		wg.Add(1)
		go func(i int, img string) {
			defer wg.Done()
			contentType, data, err := decodeDataURI(img)
			if err != nil {
				s.log.Warn("embedded image dropped: bad payload", zap.Error(err))
				return
			}
			url, err := s.uploader.Upload(ctx, contentType, data)
			if err != nil {
				s.log.Warn("image upload failed, continuing without it", zap.Error(err))
				return
			}
			resolved[i] = url
		}(i, img)
	}
	wg.Wait()

	out := make([]string, 0, len(resolved))
	for _, u := range resolved {
		if u != "" {
			out = append(out, u)
		}
	}
	return out
}

func coverOf(images []string) string {
	if len(images) == 0 {
		return ""
	}
	return images[0]
}

func decodeDataURI(uri string) (contentType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, errors.New("not a data uri")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, errors.New("malformed data uri")
	}
	contentType = meta
	if idx := strings.Index(meta, ";"); idx >= 0 {
		contentType = meta[:idx]
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, errors.New("unsupported data uri encoding")
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, err
	}
	return contentType, data, nil
}
