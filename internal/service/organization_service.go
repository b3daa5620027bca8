package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"stockbook/internal/dto"
	"stockbook/internal/repository"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ReservedSubdomains can never be claimed by an organization.
var ReservedSubdomains = []string{
	"www", "api", "admin", "app", "mail", "ftp", "test", "staging", "dev",
	"blog", "support", "help", "docs", "status", "cdn", "assets", "static", "media",
}

var (
	subdomainRe  = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
	hexColorRe   = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
	clockTimeRe  = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9](:([0-5][0-9]))?$`)
	slugStripRe  = regexp.MustCompile(`[^\w\s-]`)
	slugSepRe    = regexp.MustCompile(`[\s_-]+`)
	slugHyphenRe = regexp.MustCompile(`^-+|-+$`)
)

type OrganizationService interface {
	// Resolve returns nil without error when no organization owns the subdomain.
	Resolve(ctx context.Context, subdomain string) (*dto.OrganizationResponse, error)
	Update(ctx context.Context, actor Actor, req dto.UpdateOrganizationRequest) (*dto.OrganizationResponse, error)
}

// Locker serializes subdomain claims across instances.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration, opt *redislock.Options) (*redislock.Lock, error)
}

type organizationService struct {
	repo   repository.OrganizationRepository
	rdb    *redis.Client
	locker Locker
	ttl    time.Duration
}

// NewOrganizationService wires the service. rdb and locker may be nil:
// the cache is skipped and subdomain claims rely on the unique index alone.
func NewOrganizationService(repo repository.OrganizationRepository, rdb *redis.Client, locker Locker, cacheTTL time.Duration) OrganizationService {
	return &organizationService{repo: repo, rdb: rdb, locker: locker, ttl: cacheTTL}
}

func normalizeSubdomain(raw string) string { return strings.ToLower(strings.TrimSpace(raw)) }

func subdomainCacheKey(sub string) string { return "org:subdomain:" + sub }

// ── Resolve ───────────────────────────────────────────────────────────────────

func (s *organizationService) Resolve(ctx context.Context, subdomain string) (*dto.OrganizationResponse, error) {
	sub := normalizeSubdomain(subdomain)
	if sub == "" {
		return nil, invalid("subdomain", "Subdomain is required")
	}

	if s.rdb != nil && s.ttl > 0 {
		if raw, err := s.rdb.Get(ctx, subdomainCacheKey(sub)).Bytes(); err == nil {
			var cached dto.OrganizationResponse
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	org, err := s.repo.FindBySubdomain(ctx, sub)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, nil
		}
		return nil, storeErr("Failed to resolve organization", err)
	}

	resp := organizationToResponse(org)
	if s.rdb != nil && s.ttl > 0 {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, subdomainCacheKey(sub), data, s.ttl).Err(); err != nil {
				log.Warn().Err(err).Str("subdomain", sub).Msg("org cache: write failed")
			}
		}
	}
	return &resp, nil
}

func (s *organizationService) evict(ctx context.Context, subdomains ...*string) {
	if s.rdb == nil {
		return
	}
	var keys []string
	for _, sub := range subdomains {
		if sub != nil && *sub != "" {
			keys = append(keys, subdomainCacheKey(*sub))
		}
	}
	if len(keys) == 0 {
		return
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		log.Warn().Err(err).Strs("keys", keys).Msg("org cache: evict failed")
	}
}

// ── Update ────────────────────────────────────────────────────────────────────

func (s *organizationService) Update(ctx context.Context, actor Actor, req dto.UpdateOrganizationRequest) (*dto.OrganizationResponse, error) {
	if actor.UserID == uuid.Nil {
		return nil, unauthorized("Unauthorized")
	}
	if !actor.IsSuperAdmin() && !actor.IsTenantAdmin() {
		return nil, forbidden("Forbidden: Admin access required")
	}
	if strings.TrimSpace(req.OrganizationID) == "" || strings.TrimSpace(req.Name) == "" {
		return nil, invalid("", "organization_id and name are required")
	}
	orgID, err := parseID("organization_id", req.OrganizationID)
	if err != nil {
		return nil, err
	}
	if !actor.IsSuperAdmin() && (actor.OrganizationID == nil || *actor.OrganizationID != orgID) {
		return nil, forbidden("Forbidden: You can only update your own organization")
	}

	org, err := s.repo.FindByID(ctx, orgID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, notFound("Organization")
		}
		return nil, storeErr("Failed to fetch organization", err)
	}
	previousSubdomain := org.Subdomain

	org.Name = req.Name
	org.Slug = Slugify(req.Name)
	if req.LogoURL != nil {
		org.LogoURL = nilIfBlank(*req.LogoURL)
	}
	if req.BusinessType != nil {
		org.BusinessType = nilIfBlank(*req.BusinessType)
	}
	if req.BrandColor != nil {
		if org.BrandColor, err = normalizeBrandColor(*req.BrandColor); err != nil {
			return nil, err
		}
	}
	if req.OpeningTime != nil {
		if org.OpeningTime, err = NormalizeClockTime("opening_time", *req.OpeningTime); err != nil {
			return nil, err
		}
	}
	if req.ClosingTime != nil {
		if org.ClosingTime, err = NormalizeClockTime("closing_time", *req.ClosingTime); err != nil {
			return nil, err
		}
	}

	claim := ""
	if req.Subdomain != nil {
		if claim, err = ValidateSubdomain(*req.Subdomain); err != nil {
			return nil, err
		}
		org.Subdomain = nilIfBlank(claim)
	}

	write := func() error {
		if claim != "" {
			taken, err := s.repo.FindBySubdomain(ctx, claim)
			if err == nil && taken.ID != org.ID {
				return invalid("subdomain", "Subdomain already taken")
			}
			if err != nil && !repository.IsNotFound(err) {
				return storeErr("Failed to check subdomain", err)
			}
		}
		return s.repo.Update(ctx, org)
	}

	if claim != "" && s.locker != nil {
		lock, lerr := s.locker.Obtain(ctx, "lock:subdomain:"+claim, 5*time.Second, &redislock.Options{
			RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(100*time.Millisecond), 20),
		})
		if lerr != nil {
			if errors.Is(lerr, redislock.ErrNotObtained) {
				return nil, conflict("Subdomain claim in progress, retry")
			}
			// Redis down: the unique index still protects the claim
			log.Warn().Err(lerr).Str("subdomain", claim).Msg("subdomain lock unavailable")
		} else {
			defer func() { _ = lock.Release(context.Background()) }()
		}
	}

	if err := write(); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateSlug):
			return nil, conflict("Organization slug already exists")
		case errors.Is(err, repository.ErrDuplicateSubdomain):
			return nil, invalid("subdomain", "Subdomain already taken")
		}
		return nil, storeErr("Failed to update organization", err)
	}

	s.evict(ctx, previousSubdomain, org.Subdomain)
	resp := organizationToResponse(org)
	return &resp, nil
}

// Slugify lower-cases name, drops non-word characters and joins words with single hyphens.
func Slugify(name string) string {
	s := strings.TrimSpace(strings.ToLower(name))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSepRe.ReplaceAllString(s, "-")
	return slugHyphenRe.ReplaceAllString(s, "")
}

func normalizeBrandColor(raw string) (*string, error) {
	if raw == "" {
		return nil, nil
	}
	if !hexColorRe.MatchString(raw) {
		return nil, invalid("brand_color", "Invalid brand color format. Must be a valid hex color (e.g., #3B82F6)")
	}
	up := strings.ToUpper(raw)
	return &up, nil
}

// NormalizeClockTime accepts HH:MM or HH:MM:SS and returns HH:MM:SS; blank clears.
func NormalizeClockTime(field, raw string) (*string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	if !clockTimeRe.MatchString(raw) {
		label, example := strings.Replace(field, "_", " ", 1), "08:00"
		if field == "closing_time" {
			example = "22:00"
		}
		return nil, invalid(field, "Invalid %s format. Use HH:MM:SS or HH:MM (e.g., %s:00 or %s)", label, example, example)
	}
	if strings.Count(raw, ":") == 1 {
		raw += ":00"
	}
	return &raw, nil
}

// ValidateSubdomain normalizes raw and checks format and the reserved list.
// An empty result means the subdomain is being cleared.
func ValidateSubdomain(raw string) (string, error) {
	sub := normalizeSubdomain(raw)
	if sub == "" {
		return "", nil
	}
	if !subdomainRe.MatchString(sub) {
		return "", invalid("subdomain", "Invalid subdomain format. Use lowercase letters, numbers, and hyphens only. Must start and end with alphanumeric characters.")
	}
	for _, r := range ReservedSubdomains {
		if sub == r {
			return "", invalid("subdomain", "Subdomain \"%s\" is reserved and cannot be used.", sub)
		}
	}
	return sub, nil
}

func nilIfBlank(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
