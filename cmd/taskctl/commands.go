package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskboard/client/taskform"
	"github.com/fastygo/taskboard/client/tasks"
	"github.com/fastygo/taskboard/domain"
)

const (
	envAPI     = "TASKBOARD_API"
	defaultAPI = "http://localhost:8080/api"
)

type clientFactory func(baseURL string, opts ...tasks.Option) *tasks.Client

func rootCmd(newClient clientFactory) *cobra.Command {
	if newClient == nil {
		newClient = tasks.New
	}
	timeout := 10 * time.Second

	api := defaultAPI
	if v := os.Getenv(envAPI); v != "" {
		api = v
	}

	cmd := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage tasks on a taskboard server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&api, "api", api, "API root URL (env "+envAPI+")")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", timeout, "Per-request timeout")

	client := func() *tasks.Client { return newClient(api, tasks.WithTimeout(timeout)) }

	cmd.AddCommand(
		addCmd(client),
		listCmd(client),
		getCmd(client),
		editCmd(client),
		doneCmd(client),
		deleteCmd(client),
	)
	return cmd
}

type formFlags struct {
	title       string
	description string
	due         string
	priority    string
}

func (f *formFlags) register(cmd *cobra.Command, withTitle bool) {
	if withTitle {
		cmd.Flags().StringVarP(&f.title, "title", "t", "", "Task title")
	}
	cmd.Flags().StringVarP(&f.description, "description", "d", "", "Task description")
	cmd.Flags().StringVar(&f.due, "due", "", "Due date, any common format")
	cmd.Flags().StringVarP(&f.priority, "priority", "p", "", "Priority: P1, P2 or P3")
}

// apply copies the flags the user actually set onto the form.
func (f *formFlags) apply(cmd *cobra.Command, form *taskform.Form) {
	flags := cmd.Flags()
	if flags.Changed("title") {
		form.Title = f.title
	}
	if flags.Changed("description") {
		form.Description = f.description
	}
	if flags.Changed("due") {
		if normalized, err := domain.NormalizeDate(f.due); err == nil {
			form.DueDate = normalized
		} else {
			form.DueDate = f.due
		}
	}
	if flags.Changed("priority") {
		form.SetPriority(domain.Priority(strings.ToUpper(strings.TrimSpace(f.priority))))
	}
}

func addCmd(client func() *tasks.Client) *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			saver := &tasks.FormSaver{Client: client()}
			form := taskform.New(saver, nil)
			form.Title = args[0]
			flags.apply(cmd, form)

			if err := form.Submit(cmd.Context()); err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), *saver.Saved)
		},
	}
	flags.register(cmd, false)
	return cmd
}

func listCmd(client func() *tasks.Client) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := client().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "no tasks")
				return err
			}
			return printTasks(cmd.OutOrStdout(), list...)
		},
	}
}

func getCmd(client func() *tasks.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			task, err := client().Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := printTasks(cmd.OutOrStdout(), *task); err != nil {
				return err
			}
			if task.Description != "" {
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "\n%s\n", task.Description)
			}
			return err
		},
	}
}

func editCmd(client func() *tasks.Client) *cobra.Command {
	var flags formFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c := client()
			current, err := c.Get(cmd.Context(), id)
			if err != nil {
				return err
			}

			saver := &tasks.FormSaver{Client: c, EditID: id}
			form := taskform.New(saver, current)
			flags.apply(cmd, form)

			if err := form.Submit(cmd.Context()); err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), *saver.Saved)
		},
	}
	flags.register(cmd, true)
	return cmd
}

func doneCmd(client func() *tasks.Client) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			completed := domain.CompletionFromBool(!undo)
			task, err := client().Patch(cmd.Context(), id, domain.TaskPatch{Completed: &completed})
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), *task)
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "Mark the task as not completed")
	return cmd
}

func deleteCmd(client func() *tasks.Client) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := client().Delete(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d\n", id)
			return err
		},
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", raw)
	}
	return id, nil
}

func printTasks(w io.Writer, list ...domain.Task) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, t := range list {
		mark := " "
		if t.IsCompleted() {
			mark = "x"
		}
		due := t.DueDate
		if due == "" {
			due = "-"
		}
		fmt.Fprintf(tw, "%d\t[%s]\t%s\t%s\t%s\n", t.ID, mark, t.Priority, due, t.Title)
	}
	return tw.Flush()
}
