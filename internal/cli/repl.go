package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"taskManager/internal/board"
	"taskManager/internal/client"
	"taskManager/internal/handlers/dto"
	"taskManager/internal/models/task"
)

const helpText = `Commands:
  search [text]                 filter by name (case-insensitive), empty clears
  filter [status|All]           show only tasks with the status
  sort name|status|createdAt    sort field
  order asc|desc                sort direction
  add <name> [| description]    create a task
  status <id> <status>          change task status
  edit <id> name|description <value>
  show <id>                     task details
  delete <id>                   delete a task (asks for confirmation)
  refresh                       reload the list now
  help                          this text
  quit                          exit
`

var errUsage = errors.New("usage")

type TaskGetter interface {
	GetTask(ctx context.Context, id int64) (dto.TaskResponse, error)
}

// REPL читает команды построчно и применяет их к доске
type REPL struct {
	board    *board.Board
	tasks    TaskGetter
	statuses []string
	in       *bufio.Reader

	out *syncWriter

	mu       sync.Mutex
	rendered uint64
}

// syncWriter сериализует вывод из REPL и колбэка доски
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func NewREPL(b *board.Board, tasks TaskGetter, statuses []string, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		board:    b,
		tasks:    tasks,
		statuses: statuses,
		in:       bufio.NewReader(in),
		out:      &syncWriter{w: out},
	}
}

// OnChange перерисовывает список, когда доска применила новый ответ сервера
func (r *REPL) OnChange(s board.State) {
	r.mu.Lock()
	if s.Revision <= r.rendered {
		r.mu.Unlock()
		return
	}
	r.rendered = s.Revision
	r.mu.Unlock()

	var buf bytes.Buffer
	_ = RenderState(&buf, s)
	_, _ = r.out.Write(buf.Bytes())
}

func (r *REPL) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) Run(ctx context.Context) error {
	r.printf("%s", helpText)
	for {
		if ctx.Err() != nil {
			return nil
		}
		r.printf("> ")

		line, readErr := r.in.ReadString('\n')
		if strings.TrimSpace(line) != "" {
			quit, err := r.Execute(ctx, line)
			if err != nil {
				r.printf("Error: %s\n", describe(err))
			}
			if quit {
				return nil
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}

// Execute выполняет одну команду; quit=true означает выход
func (r *REPL) Execute(ctx context.Context, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		r.printf("%s", helpText)
	case "search":
		r.board.SetSearch(rest)
	case "filter":
		status, err := r.resolveStatus(rest, true)
		if err != nil {
			return false, err
		}
		r.board.SetStatusFilter(status)
	case "sort":
		r.board.SetSortBy(rest)
	case "order":
		r.board.SetOrder(rest)
	case "refresh", "list":
		return false, r.board.Refresh(ctx)
	case "add":
		return false, r.add(ctx, rest)
	case "status":
		return false, r.changeStatus(ctx, rest)
	case "edit":
		return false, r.edit(ctx, rest)
	case "show":
		return false, r.show(ctx, rest)
	case "delete", "rm":
		return false, r.delete(ctx, rest)
	default:
		return false, fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
	return false, nil
}

func (r *REPL) add(ctx context.Context, args string) error {
	name, description, _ := strings.Cut(args, "|")
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: add <name> [| description]", errUsage)
	}
	req := dto.CreateTaskRequest{Name: &name}
	if d := strings.TrimSpace(description); d != "" {
		req.Description = &d
	}

	created, err := r.board.Create(ctx, req)
	if err != nil {
		return err
	}
	r.printf("Created task #%d\n", created.ID)
	return nil
}

func (r *REPL) changeStatus(ctx context.Context, args string) error {
	id, rest, err := splitID(args)
	if err != nil {
		return fmt.Errorf("%w: status <id> <status>", errUsage)
	}
	status, err := r.resolveStatus(rest, false)
	if err != nil {
		return err
	}
	if err := r.board.ChangeStatus(ctx, id, status); err != nil {
		return err
	}
	r.printf("Task #%d is now %s\n", id, status)
	return nil
}

func (r *REPL) edit(ctx context.Context, args string) error {
	id, rest, err := splitID(args)
	if err != nil {
		return fmt.Errorf("%w: edit <id> name|description <value>", errUsage)
	}
	field, value, _ := strings.Cut(rest, " ")
	value = strings.TrimSpace(value)

	var req dto.UpdateTaskRequest
	switch strings.ToLower(field) {
	case "name":
		req.Name = &value
	case "description", "desc":
		req.Description = &value
	default:
		return fmt.Errorf("%w: edit <id> name|description <value>", errUsage)
	}

	if _, err := r.board.Update(ctx, id, req); err != nil {
		return err
	}
	r.printf("Task #%d updated\n", id)
	return nil
}

func (r *REPL) show(ctx context.Context, args string) error {
	id, _, err := splitID(args)
	if err != nil {
		return fmt.Errorf("%w: show <id>", errUsage)
	}
	t, err := r.tasks.GetTask(ctx, id)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	_ = RenderTask(&buf, t)
	r.printf("%s", buf.String())
	return nil
}

func (r *REPL) delete(ctx context.Context, args string) error {
	id, _, err := splitID(args)
	if err != nil {
		return fmt.Errorf("%w: delete <id>", errUsage)
	}

	r.board.RequestDelete(id)
	ok, err := Confirm(r.in, r.out, fmt.Sprintf("Delete task #%d?", id))
	if err != nil && !errors.Is(err, io.EOF) {
		r.board.CancelDelete()
		return err
	}
	if !ok {
		r.board.CancelDelete()
		r.printf("Cancelled\n")
		return nil
	}

	if err := r.board.ConfirmDelete(ctx); err != nil {
		return err
	}
	r.printf("Task #%d deleted\n", id)
	return nil
}

// resolveStatus сопоставляет ввод без учёта регистра с допустимым статусом
func (r *REPL) resolveStatus(input string, allowAll bool) (string, error) {
	input = strings.TrimSpace(input)
	if allowAll && (input == "" || strings.EqualFold(input, task.StatusAll)) {
		return task.StatusAll, nil
	}
	for _, st := range r.statuses {
		if strings.EqualFold(st, input) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q, expected one of: %s", input, strings.Join(r.statuses, ", "))
}

func splitID(args string) (int64, string, error) {
	raw, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, "", fmt.Errorf("invalid task id %q", raw)
	}
	return id, strings.TrimSpace(rest), nil
}

func describe(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
