package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

type GenerateFeedTask struct {
	Task
	templates TemplateSource
	runner    RunnerInterface
}

func NewGenerateFeedTask(templateName string, templates TemplateSource, runner RunnerInterface) *GenerateFeedTask {
	return &GenerateFeedTask{
		Task:      NewTask(TaskTypeGenerateFeed, templateName),
		templates: templates,
		runner:    runner,
	}
}

func (t *GenerateFeedTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	// Re-read the template so retries see edits made since enqueueing.
	tmpl, err := t.templates.Get(t.TemplateName)
	if err != nil {
		return fmt.Errorf("failed to get template: %w", err)
	}

	if !tmpl.Settings.Enabled {
		slog.Debug("Template disabled, skipping", "template", t.TemplateName)
		return nil
	}

	entry, err := t.runner.Run(ctx, tmpl)
	if err != nil {
		return fmt.Errorf("failed to generate feed: %w", err)
	}

	slog.Info("Feed generation completed",
		"template", t.TemplateName,
		"status", entry.Status,
		"accepted", entry.Accepted,
		"skipped", entry.Skipped,
		"warnings", entry.Warnings,
		"duration", t.GetDuration().String())

	return nil
}
