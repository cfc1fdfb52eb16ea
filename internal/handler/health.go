package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"maintrack/internal/apierror"
	"maintrack/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// Checks DB and Redis connectivity; never exposes credentials or internals.
// The e-mail dead-letter backlog is reported but does not affect the status.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "connected"
		var dead int64
		if rdb.Ping(ctx).Err() != nil {
			redisStatus = "error"
		} else {
			dead, _ = worker.DLQLength(ctx, rdb, worker.QueueEmail)
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus != "connected" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":        status == http.StatusOK,
			"db":        dbStatus,
			"redis":     redisStatus,
			"email_dlq": dead,
		})
	}
}

// DeadLetters lists the most recent e-mail jobs that exhausted their retries.
func DeadLetters(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
		entries, err := worker.DLQEntries(c.Request.Context(), rdb, worker.QueueEmail, limit)
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, apierror.New("Internal server error"))
			return
		}
		c.JSON(http.StatusOK, gin.H{"queue": worker.QueueEmail, "items": entries})
	}
}
