package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/taskmatch/internal/broker"
	"github.com/MikeSquared-Agency/taskmatch/internal/config"
)

const commandTimeout = 30 * time.Second

func runAssign(cfg *config.Config, logger *slog.Logger, rawID string) error {
	taskID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid task id %q: %w", rawID, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	// events are published so subscribers see CLI assignments too
	d, err := connect(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer d.Close()

	res, err := d.broker.AutoAssignTaskByID(ctx, taskID)
	if err != nil {
		return err
	}
	printAssignment(os.Stdout, res)
	return nil
}

func runRank(cfg *config.Config, logger *slog.Logger, rawID string, asJSON bool) error {
	taskID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid task id %q: %w", rawID, err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	d, err := connect(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer d.Close()

	ranking, err := d.broker.RankCandidatesByID(ctx, taskID)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(ranking)
	}
	printRanking(os.Stdout, ranking)
	return nil
}

func printAssignment(w io.Writer, res *broker.AssignmentResult) {
	green := color.New(color.FgGreen, color.Bold)
	green.Fprintf(w, "assigned ")
	fmt.Fprintf(w, "task %s to %s (%s) score %.1f\n",
		res.Task.ID, displayName(res.Member.Username, res.Member.FirstName, res.Member.LastName), res.Member.ID, res.Score)
}

func printRanking(w io.Writer, r *broker.Ranking) {
	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	bold.Fprintf(w, "task %s\n", r.TaskID)
	for _, s := range r.Stages {
		line := fmt.Sprintf("  %-13s %d -> %d", s.Stage, s.Before, s.After)
		if s.Fallback {
			line += " (fallback)"
		}
		dim.Fprintln(w, line)
	}
	fmt.Fprintln(w)

	for _, c := range r.Candidates {
		scoreColor := color.New(color.FgRed)
		switch {
		case c.Failed:
			scoreColor = color.New(color.FgMagenta)
		case c.Result.TotalScore >= 75:
			scoreColor = color.New(color.FgGreen)
		case c.Result.TotalScore >= 50:
			scoreColor = color.New(color.FgYellow)
		}

		marker := " "
		if c.Frontier {
			marker = "*"
		}
		fmt.Fprintf(w, "%2d. %s ", c.Rank, marker)
		scoreColor.Fprintf(w, "%5.1f", c.Result.TotalScore)
		fmt.Fprintf(w, "  %s", displayName(c.Member.Username, c.Member.FirstName, c.Member.LastName))
		if c.Failed {
			scoreColor.Fprint(w, "  scoring failed")
		}
		fmt.Fprintln(w)

		var parts []string
		for _, f := range c.Result.Factors {
			parts = append(parts, fmt.Sprintf("%s=%.0f", f.Name, f.Score))
		}
		for _, a := range c.Result.Adjustments {
			parts = append(parts, fmt.Sprintf("%s%+.0f", a.Name, a.Delta))
		}
		if len(parts) > 0 {
			dim.Fprintf(w, "        %s\n", strings.Join(parts, " "))
		}
	}
}

func displayName(username, first, last string) string {
	full := strings.TrimSpace(first + " " + last)
	if full == "" {
		return username
	}
	return fmt.Sprintf("%s <%s>", full, username)
}
