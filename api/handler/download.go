package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/pastpapers/config"
	"github.com/use-agent/pastpapers/models"
	"github.com/use-agent/pastpapers/webhook"
)

// Download returns a handler for POST /api/v1/download.
//
// The run happens inline: the response is written once every URL has an
// outcome. Concurrent requests queue behind the runner's lock. When the
// request names a webhook_url, notifier receives the final response.
func Download(runner Runner, notifier *webhook.Notifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		var req models.DownloadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.DownloadResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		urls := config.NormalizeURLs(req.URLs)
		if len(urls) == 0 {
			c.JSON(http.StatusBadRequest, models.DownloadResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "no usable urls",
				},
			})
			return
		}

		summary, err := runner.Run(c.Request.Context(), urls)
		status := http.StatusOK
		resp := models.DownloadResponse{
			Success: true,
			Summary: summary,
			Timing:  models.TimingInfo{TotalMs: time.Since(totalStart).Milliseconds()},
		}
		if err != nil {
			pe := toPaperError(err)
			status = mapErrorToStatus(pe)
			resp.Success = false
			resp.Error = pe.ToDetail()
		}

		if req.WebhookURL != "" && notifier != nil {
			notifier.DeliverAsync(req.WebhookURL, webhook.NewEvent(webhook.EventRunCompleted, resp))
		}

		c.JSON(status, resp)
	}
}
