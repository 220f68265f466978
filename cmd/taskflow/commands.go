package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/taskflow/client-core-go/internal/app"
	"github.com/taskflow/client-core-go/internal/router"
	"github.com/taskflow/client-core-go/internal/session"
	"github.com/taskflow/client-core-go/internal/task"
	"github.com/taskflow/client-core-go/internal/view"
)

// run registers the route for the requested command and navigates to
// it. Guards may land somewhere else (login for anonymous sessions,
// the dashboard for missing roles); whatever route wins runs.
func run(ctx context.Context, c *app.Context, command string, args []string) error {
	registerBaseRoutes(c)

	switch command {
	case "login":
		return cmdLogin(ctx, c, args)
	case "register":
		return cmdRegister(ctx, c, args)
	case "logout":
		c.Session.Logout()
		return nil
	case "whoami":
		return cmdWhoami(ctx, c)
	case "profile-update":
		return cmdProfileUpdate(ctx, c, args)
	case "change-password":
		return cmdChangePassword(ctx, c, args)
	case "dashboard":
		_, err := c.Router.Navigate(ctx, router.DefaultPath)
		return err
	case "tasks":
		return cmdTasks(ctx, c, args)
	case "task-create":
		return cmdTaskCreate(ctx, c, args)
	case "task-update":
		return cmdTaskUpdate(ctx, c, args)
	case "task-assign":
		return cmdTaskAssign(ctx, c, args)
	case "task-comment":
		return cmdTaskComment(ctx, c, args)
	case "task-delete":
		return cmdTaskDelete(ctx, c, args)
	case "notifications":
		return cmdNotifications(ctx, c, args)
	case "notify-read":
		return cmdNotifyRead(ctx, c, args)
	case "notify-read-all":
		return navigateWith(ctx, c, "/notifications", nil, func(ctx context.Context) error {
			if err := c.Notifications.MarkAllRead(ctx); err != nil {
				return err
			}
			fmt.Println("all notifications marked read")
			return nil
		})
	case "notify-delete":
		return cmdNotifyDelete(ctx, c, args)
	case "users":
		return navigateWith(ctx, c, "/projects", managerOnly, func(ctx context.Context) error {
			users, err := c.Session.Users(ctx)
			if err != nil {
				return err
			}
			for _, u := range users {
				fmt.Printf("%-5d %-24s %-32s %s\n", u.ID, u.Name, u.Email, u.Role)
			}
			return nil
		})
	case "analytics":
		return cmdAnalytics(ctx, c, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

var managerOnly = []session.Role{session.RoleManager}

// registerBaseRoutes installs the routes every invocation needs: the
// redirect targets and the root alias.
func registerBaseRoutes(c *app.Context) {
	rt := c.Router
	rt.Alias("/", router.DefaultPath)
	rt.Handle(router.Route{Path: router.LoginPath, Public: true, Handler: func(context.Context) error {
		fmt.Println("not signed in. run: taskflow login --email <email> --password <password>")
		return nil
	}})
	rt.Handle(router.Route{Path: "/auth/register", Public: true, Handler: func(context.Context) error {
		fmt.Println("run: taskflow register --name <name> --email <email> --password <password>")
		return nil
	}})
	rt.Handle(router.Route{Path: router.DefaultPath, Handler: dashboardHandler(c)})
}

// navigateWith binds handler to path and navigates there, letting the
// guards decide whether it actually runs.
func navigateWith(ctx context.Context, c *app.Context, path string, roles []session.Role, handler router.Handler) error {
	c.Router.Handle(router.Route{Path: path, Roles: roles, Handler: handler})
	_, err := c.Router.Navigate(ctx, path)
	return err
}

func cmdLogin(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return errors.New("login requires --email and --password")
	}
	// The submit step must run after navigation settles, never as the
	// route handler: a rejected credential forces a logout that lands
	// back on this route, and a handler that re-submits would loop.
	c.Router.Handle(router.Route{Path: router.LoginPath, Public: true})
	if _, err := c.Router.Navigate(ctx, router.LoginPath); err != nil {
		return err
	}
	u, err := c.Session.Login(ctx, session.LoginRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s <%s> (%s)\n", u.Name, u.Email, u.Role)
	return nil
}

func cmdRegister(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("register", pflag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	role := fs.String("role", "", "requested role (ADMIN, MANAGER, EMPLOYEE)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" || *password == "" {
		return errors.New("register requires --name, --email and --password")
	}
	c.Router.Handle(router.Route{Path: "/auth/register", Public: true})
	if _, err := c.Router.Navigate(ctx, "/auth/register"); err != nil {
		return err
	}
	u, err := c.Session.Register(ctx, session.RegisterRequest{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Role:     session.Role(*role),
	})
	if err != nil {
		return err
	}
	fmt.Printf("registered %s <%s> (%s)\n", u.Name, u.Email, u.Role)
	return nil
}

func cmdWhoami(ctx context.Context, c *app.Context) error {
	return navigateWith(ctx, c, "/profile", nil, func(ctx context.Context) error {
		u, err := c.Session.RefreshProfile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> (%s), member since %s\n", u.Name, u.Email, u.Role, u.CreatedAt.Format("2006-01-02"))
		return nil
	})
}

func cmdProfileUpdate(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("profile-update", pflag.ContinueOnError)
	name := fs.String("name", "", "new display name")
	email := fs.String("email", "", "new account email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/profile", nil, func(ctx context.Context) error {
		var req session.UpdateProfileRequest
		if fs.Changed("name") {
			req.Name = name
		}
		if fs.Changed("email") {
			req.Email = email
		}
		u, err := c.Session.UpdateProfile(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("profile updated: %s <%s>\n", u.Name, u.Email)
		return nil
	})
}

func cmdChangePassword(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("change-password", pflag.ContinueOnError)
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/profile", nil, func(ctx context.Context) error {
		if *current == "" || *next == "" {
			return errors.New("change-password requires --current and --new")
		}
		if err := c.Session.ChangePassword(ctx, session.ChangePasswordRequest{
			CurrentPassword: *current,
			NewPassword:     *next,
		}); err != nil {
			return err
		}
		fmt.Println("password changed")
		return nil
	})
}

func cmdTasks(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("tasks", pflag.ContinueOnError)
	status := fs.String("status", "", "filter by status")
	assignee := fs.Int64("assignee", 0, "filter by assignee user id")
	createdBy := fs.Int64("created-by", 0, "filter by creator user id")
	priority := fs.String("priority", "", "filter by priority")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/tasks", nil, func(ctx context.Context) error {
		tasks, err := c.Tasks.List(ctx, task.Filters{
			Status:    task.Status(*status),
			Assignee:  *assignee,
			CreatedBy: *createdBy,
			Priority:  task.Priority(*priority),
		})
		if err != nil {
			return err
		}
		printTasks(tasks)
		return nil
	})
}

func cmdTaskCreate(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("task-create", pflag.ContinueOnError)
	title := fs.String("title", "", "task title")
	description := fs.String("description", "", "task description")
	priority := fs.String("priority", string(task.PriorityMedium), "task priority")
	assignee := fs.Int64("assignee", 0, "assignee user id")
	due := fs.String("due", "", "due date (RFC 3339 or YYYY-MM-DD)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/tasks", nil, func(ctx context.Context) error {
		if *title == "" {
			return errors.New("task-create requires --title")
		}
		req := task.CreateRequest{
			Title:       *title,
			Description: *description,
			Priority:    task.Priority(*priority),
		}
		if *assignee != 0 {
			req.AssigneeID = assignee
		}
		if *due != "" {
			req.DueDate = due
		}
		created, err := c.Tasks.Create(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("created task %d: %s\n", created.ID, created.Title)
		return nil
	})
}

func cmdTaskUpdate(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("task-update", pflag.ContinueOnError)
	id := fs.Int64("id", 0, "task id")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	status := fs.String("status", "", "new status")
	priority := fs.String("priority", "", "new priority")
	assignee := fs.Int64("assignee", 0, "new assignee user id")
	due := fs.String("due", "", "new due date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/tasks", nil, func(ctx context.Context) error {
		if *id == 0 {
			return errors.New("task-update requires --id")
		}
		var req task.UpdateRequest
		if fs.Changed("title") {
			req.Title = title
		}
		if fs.Changed("description") {
			req.Description = description
		}
		if fs.Changed("status") {
			st := task.Status(*status)
			req.Status = &st
		}
		if fs.Changed("priority") {
			p := task.Priority(*priority)
			req.Priority = &p
		}
		if fs.Changed("assignee") {
			req.AssignedTo = assignee
		}
		if fs.Changed("due") {
			req.DueDate = due
		}
		updated, err := c.Tasks.Update(ctx, *id, req)
		if err != nil {
			return err
		}
		fmt.Printf("updated task %d: %s [%s]\n", updated.ID, updated.Title, updated.Status)
		return nil
	})
}

func cmdTaskAssign(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("task-assign", pflag.ContinueOnError)
	id := fs.Int64("id", 0, "task id")
	user := fs.Int64("user", 0, "assignee user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/tasks", nil, func(ctx context.Context) error {
		if *id == 0 || *user == 0 {
			return errors.New("task-assign requires --id and --user")
		}
		updated, err := c.Tasks.Assign(ctx, *id, *user)
		if err != nil {
			return err
		}
		fmt.Printf("task %d assigned to user %d\n", updated.ID, *user)
		return nil
	})
}

func cmdTaskComment(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("task-comment", pflag.ContinueOnError)
	id := fs.Int64("id", 0, "task id")
	text := fs.String("text", "", "comment text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/tasks", nil, func(ctx context.Context) error {
		if *id == 0 || *text == "" {
			return errors.New("task-comment requires --id and --text")
		}
		comment, err := c.Tasks.AddComment(ctx, *id, *text)
		if err != nil {
			return err
		}
		fmt.Printf("comment %d added to task %d\n", comment.ID, *id)
		return nil
	})
}

func cmdTaskDelete(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("task-delete", pflag.ContinueOnError)
	id := fs.Int64("id", 0, "task id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/tasks", nil, func(ctx context.Context) error {
		if *id == 0 {
			return errors.New("task-delete requires --id")
		}
		if err := c.Tasks.Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("deleted task %d\n", *id)
		return nil
	})
}

func cmdNotifications(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("notifications", pflag.ContinueOnError)
	unread := fs.Bool("unread", false, "unread notifications only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/notifications", nil, func(ctx context.Context) error {
		resp, err := c.Notifications.List(ctx, *unread)
		if err != nil {
			return err
		}
		for _, n := range resp.Notifications {
			marker := " "
			if !n.Read {
				marker = "*"
			}
			fmt.Printf("%s %-5d %s\n", marker, n.ID, n.Message)
		}
		fmt.Printf("%d total, %d unread\n", resp.Total, resp.UnreadCount)
		return nil
	})
}

func cmdNotifyRead(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("notify-read", pflag.ContinueOnError)
	id := fs.Int64("id", 0, "notification id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/notifications", nil, func(ctx context.Context) error {
		if *id == 0 {
			return errors.New("notify-read requires --id")
		}
		if err := c.Notifications.MarkRead(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("notification %d marked read (%d unread)\n", *id, c.Notifications.UnreadCount())
		return nil
	})
}

func cmdNotifyDelete(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("notify-delete", pflag.ContinueOnError)
	id := fs.Int64("id", 0, "notification id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/notifications", nil, func(ctx context.Context) error {
		if *id == 0 {
			return errors.New("notify-delete requires --id")
		}
		if err := c.Notifications.Delete(ctx, *id); err != nil {
			return err
		}
		fmt.Printf("deleted notification %d\n", *id)
		return nil
	})
}

func cmdAnalytics(ctx context.Context, c *app.Context, args []string) error {
	fs := pflag.NewFlagSet("analytics", pflag.ContinueOnError)
	period := fs.String("period", "month", "reporting period (week, month, year)")
	user := fs.Int64("user", 0, "scope to one user id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return navigateWith(ctx, c, "/analytics", managerOnly, func(ctx context.Context) error {
		completion, err := c.Analytics.CompletionRate(ctx, *user, *period)
		if err != nil {
			return err
		}
		fmt.Printf("completion (%s): %d/%d tasks (%.0f%%)\n",
			completion.TimePeriod, completion.CompletedTasks, completion.TotalTasks,
			completion.CompletionRate*100)

		productivity, err := c.Analytics.Productivity(ctx, *user)
		if err != nil {
			return err
		}
		fmt.Printf("productivity: %d total, %d completed, %d in progress, %d pending, avg completion %.1fh\n",
			productivity.TotalTasks, productivity.CompletedTasks,
			productivity.InProgressTasks, productivity.PendingTasks,
			productivity.AverageCompletionTime)

		statuses, err := c.Analytics.StatusDistribution(ctx)
		if err != nil {
			return err
		}
		fmt.Println("by status:")
		for _, s := range statuses {
			fmt.Printf("  %-12s %4d (%.1f%%)\n", s.Status, s.Count, s.Percentage)
		}

		priorities, err := c.Analytics.PriorityDistribution(ctx)
		if err != nil {
			return err
		}
		fmt.Println("by priority:")
		for _, p := range priorities {
			fmt.Printf("  %-12s %4d (%.1f%%)\n", p.Priority, p.Count, p.Percentage)
		}
		return nil
	})
}

func dashboardHandler(c *app.Context) router.Handler {
	return func(ctx context.Context) error {
		d := view.NewDashboard(c.Session, c.Tasks, c.Analytics, c.Logger)
		defer d.Close()
		h := view.NewHeader(c.Session, c.Notifications, c.Logger)
		defer h.Close()

		if err := d.Refresh(ctx); err != nil {
			return err
		}
		if err := h.Refresh(ctx); err != nil {
			return err
		}

		if u := h.User(); u != nil {
			fmt.Printf("%s (%s), %d unread notifications\n", u.Name, u.Role, h.UnreadCount())
		}
		stats := d.Stats()
		fmt.Printf("tasks: %d total, %d completed, %d in progress, %d pending (%d%% complete)\n",
			stats.TotalTasks, stats.CompletedTasks, stats.InProgressTasks,
			stats.PendingTasks, stats.CompletionRate)
		if len(stats.Overdue) > 0 {
			fmt.Printf("overdue:\n")
			printTasks(stats.Overdue)
		}
		if len(stats.Recent) > 0 {
			fmt.Printf("recently updated:\n")
			printTasks(stats.Recent)
		}
		if completion := d.Completion(); completion != nil {
			fmt.Printf("team completion (%s): %.0f%%\n", completion.TimePeriod, completion.CompletionRate*100)
		}
		return nil
	}
}

func printTasks(tasks []task.Task) {
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil && !t.DueDate.IsZero() {
			due = t.DueDate.Format("2006-01-02")
		}
		fmt.Printf("%-5d %-12s %-8s due %-10s %s\n", t.ID, t.Status, t.Priority, due, t.Title)
	}
}
