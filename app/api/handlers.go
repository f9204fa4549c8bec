package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dbarreiro/rundown-sync/app/content"
	"github.com/dbarreiro/rundown-sync/app/database"
	"github.com/dbarreiro/rundown-sync/app/rundown"
	"github.com/gin-gonic/gin"
)

const defaultChangesLimit = 50

func NewHandler(configCache *rundown.ConfigCache, changeRepo database.ChangeRepository,
	stateStore *content.StateStore, monitor MonitorInterface) *Handler {
	return &Handler{
		configCache: configCache,
		changeRepo:  changeRepo,
		stateStore:  stateStore,
		monitor:     monitor,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()
	health["tracked_assets"] = h.stateStore.Len()

	if changeCount, err := h.changeRepo.GetChangeCount(); err == nil {
		health["changes"] = changeCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	watchers := h.monitor.Watchers()

	rundowns := make([]map[string]interface{}, 0, len(watchers))
	totalRefs := 0

	for _, watcher := range watchers {
		refs := watcher.ActiveRefs()
		totalRefs += len(refs)

		info := map[string]interface{}{
			"name":        watcher.Name(),
			"path":        watcher.Path(),
			"state":       watcher.State(),
			"active_refs": len(refs),
		}
		if lastRun := watcher.LastRun(); !lastRun.IsZero() {
			info["last_run"] = lastRun.Format(time.RFC3339)
		}

		rundowns = append(rundowns, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"rundowns":          rundowns,
		"total_active_refs": totalRefs,
		"tracked_assets":    h.stateStore.Len(),
	})
}

func (h *Handler) APIListRundowns(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	rundowns := make([]map[string]interface{}, 0, len(configs))

	for _, config := range configs {
		info := map[string]interface{}{
			"name":     config.Name,
			"path":     config.Path,
			"enabled":  config.Settings.Enabled,
			"interval": (time.Duration(config.Settings.Interval) * time.Second).String(),
			"filter":   config.Filter,
			"kinds":    config.Kinds,
		}

		if count, err := h.changeRepo.GetChangeCountByRundown(config.Name); err == nil {
			info["change_count"] = count
		}

		rundowns = append(rundowns, info)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"rundowns": rundowns,
		"total":    len(rundowns),
	})
}

func (h *Handler) APIGetRundownChanges(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing rundown name parameter"})
		return
	}

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Rundown configuration not found", "rundown", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Rundown configuration not found"})
		return
	}

	changes, err := h.changeRepo.GetChangesByRundown(name, changesLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "get_changes", "rundown", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"rundown": name,
		"changes": changes,
		"total":   len(changes),
	})
}

func (h *Handler) APIListChanges(c *gin.Context) {
	changes, err := h.changeRepo.GetRecentChanges(changesLimit(c))
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_changes", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"changes": changes,
		"total":   len(changes),
	})
}

func (h *Handler) APIListAssets(c *gin.Context) {
	refs := h.stateStore.Keys()

	assets := make([]map[string]interface{}, 0, len(refs))
	for _, ref := range refs {
		id, _ := h.stateStore.Get(ref)
		assets = append(assets, map[string]interface{}{
			"reference": ref,
			"asset_id":  id,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"assets": assets,
		"total":  len(assets),
	})
}

func changesLimit(c *gin.Context) int {
	limit := defaultChangesLimit
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}
