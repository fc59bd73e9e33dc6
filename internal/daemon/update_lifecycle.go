package daemon

import (
	"context"
	"errors"
	"time"

	"casenotify/internal/logging"
	"casenotify/internal/types"
)

const (
	updateCheckTimeout    = 2 * time.Minute
	updateDownloadTimeout = 15 * time.Minute
)

var errNoUpdateFeed = errors.New("update feed not configured")

type updateTrigger string

const (
	updateTriggerManual     updateTrigger = "manual"
	updateTriggerBackground updateTrigger = "background"
)

// checkForUpdates starts a check unless one is already running. Manual
// checks report their outcome in a dialog; background checks stay quiet.
func (c *Controller) checkForUpdates(trigger updateTrigger) {
	if c.update.Status.Busy() {
		c.logger.Debug("update_check_skipped", logging.F("trigger", trigger), logging.F("status", c.update.Status))
		return
	}
	manual := trigger == updateTriggerManual
	if manual && c.cfg.Updates.DevMode {
		c.metrics.updateChecks.WithLabelValues(string(trigger), "dev_mode").Inc()
		c.surfaces.ShowDialog(types.Dialog{
			Kind:    types.DialogInfo,
			Title:   "Updates",
			Message: "Update checks are disabled in development builds.",
		})
		return
	}
	if c.feed == nil {
		if manual {
			c.finishUpdateError(trigger, errNoUpdateFeed)
		}
		return
	}
	c.updateResetTimer.Cancel()
	c.update.Status = types.UpdateStatusChecking
	c.update.Error = ""
	c.update.Version = ""
	c.updateChanged()

	ctx, cancel := context.WithCancel(context.Background())
	c.updateCancel = cancel
	feed := c.feed
	go func() {
		checkCtx, checkCancel := context.WithTimeout(ctx, updateCheckTimeout)
		info, err := feed.Check(checkCtx)
		checkCancel()
		c.loop.Post(func() { c.finishCheck(ctx, trigger, info, err) })
	}()
}

func (c *Controller) finishCheck(ctx context.Context, trigger updateTrigger, info *types.UpdateInfo, err error) {
	if c.update.Status != types.UpdateStatusChecking || ctx.Err() != nil {
		return
	}
	c.update.LastCheckedAt = nowMillis(c.clock)
	manual := trigger == updateTriggerManual
	switch {
	case err != nil:
		c.finishUpdateError(trigger, err)
	case info == nil:
		c.metrics.updateChecks.WithLabelValues(string(trigger), "up_to_date").Inc()
		c.update.Status = types.UpdateStatusUpToDate
		c.clearUpdateCancel()
		c.updateChanged()
		c.armUpdateReset()
		if manual {
			c.surfaces.ShowDialog(types.Dialog{
				Kind:    types.DialogInfo,
				Title:   "Updates",
				Message: "You're up to date.",
				Detail:  "Version " + c.version,
			})
		}
		c.logger.Info("update_up_to_date", logging.F("trigger", trigger))
	case c.downloaded != nil && c.downloaded.Version == info.Version:
		c.metrics.updateChecks.WithLabelValues(string(trigger), "already_downloaded").Inc()
		c.clearUpdateCancel()
		c.markDownloaded(trigger, *c.downloaded)
	default:
		c.metrics.updateChecks.WithLabelValues(string(trigger), "available").Inc()
		c.update.Status = types.UpdateStatusDownloading
		c.update.Version = info.Version
		c.updateChanged()
		c.logger.Info("update_downloading", logging.F("version", info.Version), logging.F("trigger", trigger))
		feed := c.feed
		release := *info
		go func() {
			downloadCtx, cancel := context.WithTimeout(ctx, updateDownloadTimeout)
			downloaded, err := feed.Download(downloadCtx, release)
			cancel()
			c.loop.Post(func() { c.finishDownload(ctx, trigger, downloaded, err) })
		}()
	}
}

func (c *Controller) finishDownload(ctx context.Context, trigger updateTrigger, downloaded types.DownloadedUpdate, err error) {
	if c.update.Status != types.UpdateStatusDownloading || ctx.Err() != nil {
		return
	}
	c.clearUpdateCancel()
	if err != nil {
		c.finishUpdateError(trigger, err)
		return
	}
	c.markDownloaded(trigger, downloaded)
}

func (c *Controller) markDownloaded(trigger updateTrigger, downloaded types.DownloadedUpdate) {
	c.downloaded = &downloaded
	c.update.Status = types.UpdateStatusDownloaded
	c.update.Version = downloaded.Version
	c.update.ReadyToInstall = true
	c.update.ReadyVersion = downloaded.Version
	c.update.Error = ""
	c.updateChanged()
	c.logger.Info("update_ready", logging.F("version", downloaded.Version), logging.F("path", downloaded.Path))
	if trigger == updateTriggerManual {
		c.surfaces.ShowDialog(types.Dialog{
			Kind:    types.DialogInfo,
			Title:   "Update ready",
			Message: "Version " + downloaded.Version + " is ready.",
			Detail:  "Choose \"Restart to apply\" from the tray menu to install it.",
		})
	}
}

func (c *Controller) finishUpdateError(trigger updateTrigger, err error) {
	c.metrics.updateChecks.WithLabelValues(string(trigger), "error").Inc()
	c.clearUpdateCancel()
	c.update.Status = types.UpdateStatusError
	c.update.Error = err.Error()
	c.updateChanged()
	c.armUpdateReset()
	c.logger.Warn("update_check_failed", logging.F("trigger", trigger), logging.F("error", err))
	if trigger == updateTriggerManual {
		c.surfaces.ShowDialog(types.Dialog{
			Kind:    types.DialogError,
			Title:   "Update check failed",
			Message: "Could not check for updates.",
			Detail:  err.Error(),
		})
	}
}

// armUpdateReset returns upToDate and error to idle after the display
// dwell. A download that is ready keeps its status.
func (c *Controller) armUpdateReset() {
	c.updateResetTimer.Schedule(c.cfg.UpdateStatusReset(), func() {
		if c.update.Status != types.UpdateStatusUpToDate && c.update.Status != types.UpdateStatusError {
			return
		}
		if c.downloaded != nil {
			c.update.Status = types.UpdateStatusDownloaded
		} else {
			c.update.Status = types.UpdateStatusIdle
		}
		c.update.Error = ""
		c.updateChanged()
	})
}

func (c *Controller) clearUpdateCancel() {
	if c.updateCancel != nil {
		c.updateCancel()
		c.updateCancel = nil
	}
}

func (c *Controller) updateChanged() {
	c.surfaces.Send(types.SurfaceMain, types.ChannelUpdateState, c.update)
	c.events.Publish(types.Event{Type: types.EventUpdateState, Payload: c.update})
	c.rebuildMenu()
}

// installUpdate applies the staged update and quits.
func (c *Controller) installUpdate() error {
	if !c.update.ReadyToInstall || c.downloaded == nil {
		return conflictError("no update is ready to install", nil)
	}
	if c.feed == nil {
		return unavailableError("update feed not configured", nil)
	}
	if err := c.feed.Apply(*c.downloaded); err != nil {
		c.logger.Error("update_apply_failed", logging.F("version", c.downloaded.Version), logging.F("error", err))
		c.surfaces.ShowDialog(types.Dialog{
			Kind:    types.DialogError,
			Title:   "Update failed",
			Message: "The update could not be applied.",
			Detail:  err.Error(),
		})
		return unavailableError("apply update", err)
	}
	c.logger.Info("update_applied", logging.F("version", c.downloaded.Version))
	c.quitApp()
	return nil
}

// scheduleBackgroundCheck runs a quiet check after delay and keeps checking
// on the configured interval.
func (c *Controller) scheduleBackgroundCheck(delay time.Duration) {
	if c.feed == nil || c.cfg.Updates.DevMode {
		return
	}
	c.updateTimer.Schedule(delay, func() {
		c.checkForUpdates(updateTriggerBackground)
		c.scheduleBackgroundCheck(c.cfg.UpdateCheckInterval())
	})
}
