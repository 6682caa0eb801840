package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"diary/internal/diary"
)

func (a *app) addCmd() *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Add a record",
		Long:  `Add a record. The title comes from --title or the positional arguments and must not be blank.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				title = strings.Join(args, " ")
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			rec, err := s.ctrl.OnAdd(title, description)
			if errors.Is(err, diary.ErrValidation) {
				return err
			}
			if rec.ID != 0 {
				fmt.Fprintf(a.out, "✓ Added #%d: %s\n", rec.ID, rec.Title)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Record title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "Record description")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var allPending, allCompleted, asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show pending and completed records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if allPending {
				s.ctrl.OnToggleShowMore(diary.ListPending)
			}
			if allCompleted {
				s.ctrl.OnToggleShowMore(diary.ListCompleted)
			}
			snap := s.ctrl.Snapshot()
			if asJSON {
				enc := json.NewEncoder(a.out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap.Records)
			}
			renderLists(a.out, snap, s.cfg.RowCap, terminalWidth(a.out))
			return nil
		},
	}
	cmd.Flags().BoolVar(&allPending, "all-pending", false, "Show every pending record")
	cmd.Flags().BoolVar(&allCompleted, "all-completed", false, "Show every completed record")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the stored records as JSON")
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	var title, description string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a record's title or description",
		Long:  `Change a record's title or description. Flags that are not given keep the current value. Without flags, both values are prompted for.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			cur, ok := s.ctrl.Lookup(id)
			if !ok {
				fmt.Fprintf(a.out, "No record #%d\n", id)
				return nil
			}

			var rec diary.Record
			titleSet, descSet := cmd.Flags().Changed("title"), cmd.Flags().Changed("description")
			if !titleSet && !descSet {
				rec, err = s.ctrl.OnEditPrompt(id)
			} else {
				if !titleSet {
					title = cur.Title
				}
				if !descSet {
					description = cur.Description
				}
				rec, err = s.ctrl.OnEdit(id, title, description)
			}
			if errors.Is(err, diary.ErrValidation) {
				return err
			}
			switch {
			case rec.ID == 0:
			case rec.Title == cur.Title && rec.Description == cur.Description:
				fmt.Fprintf(a.out, "Unchanged #%d: %s\n", rec.ID, rec.Title)
			default:
				fmt.Fprintf(a.out, "✓ Updated #%d: %s\n", rec.ID, rec.Title)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func (a *app) completeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <id>",
		Short: "Mark a record as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if _, ok := s.ctrl.Lookup(id); !ok {
				fmt.Fprintf(a.out, "No record #%d\n", id)
				return nil
			}
			rec, err := s.ctrl.OnComplete(id)
			fmt.Fprintf(a.out, "✓ Completed #%d at %s\n", rec.ID, rec.CompletedAt())
			return err
		},
	}
}

func (a *app) removeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a record after confirmation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if _, ok := s.ctrl.Lookup(id); !ok {
				fmt.Fprintf(a.out, "No record #%d\n", id)
				return nil
			}
			confirmed := yes
			if yes {
				err = s.ctrl.OnRemove(id, true)
			} else {
				confirmed, err = s.ctrl.OnRemovePrompt(id)
			}
			if !confirmed {
				fmt.Fprintln(a.out, "Cancelled")
				return nil
			}
			fmt.Fprintf(a.out, "✓ Removed #%d\n", id)
			return err
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func (a *app) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Rewrite the stored list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open()
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.ctrl.Sync(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "✓ Saved %d records\n", len(s.ctrl.Snapshot().Records))
			return nil
		},
	}
}
