package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pastpapers/cache"
	"github.com/use-agent/pastpapers/listing"
	"github.com/use-agent/pastpapers/models"
)

// Listing returns a handler for POST /api/v1/listing.
//
// Orchestration flow:
//  1. Parse & validate request.
//  2. Cache lookup when max_age is set.
//  3. Fetch and parse the listing page.
//  4. Apply the year/type filters, store in cache, respond.
func Listing(lister Lister, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ListingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ListingResponse{
				Success: false,
				Papers:  []models.Paper{},
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.URL, req.Year, req.Type)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				resp := *cached
				resp.CacheStatus = "hit"
				resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 3. Fetch ────────────────────────────────────────────────
		papers, err := lister.Fetch(c.Request.Context(), req.URL)
		if err != nil {
			pe := toPaperError(err)
			c.JSON(mapErrorToStatus(pe), models.ListingResponse{
				Success: false,
				Papers:  []models.Paper{},
				Error:   pe.ToDetail(),
				Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
			})
			return
		}

		// ── 4. Filter, cache, respond ───────────────────────────────
		papers = listing.Apply(papers, req.Year, req.Type)
		resp := &models.ListingResponse{
			Success: true,
			Papers:  papers,
			Total:   len(papers),
		}
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, resp)
			out := *resp
			out.CacheStatus = "miss"
			resp = &out
		}
		resp.Timing = models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()}

		c.JSON(http.StatusOK, resp)
	}
}
