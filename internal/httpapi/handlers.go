package httpapi

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

// createList handles POST /api/v1/lists.
func (s *Server) createList(c *fiber.Ctx) error {
	var req createListRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	list, err := s.lists.CreateList(c.UserContext(), owner(c), service.ListInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toListResponse(list))
}

// listLists handles GET /api/v1/lists.
func (s *Server) listLists(c *fiber.Ctx) error {
	page, err := pageParams(c)
	if err != nil {
		return respond(c, err)
	}

	result, err := s.lists.ListLists(c.UserContext(), owner(c), page)
	if err != nil {
		return respond(c, err)
	}

	items := make([]listResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toListResponse(&result.Items[i]))
	}
	return c.JSON(pageResponse[listResponse]{
		Items:    items,
		Page:     result.Number,
		PageSize: result.Size,
		Total:    result.Total,
		HasMore:  result.HasMore(),
	})
}

// listSummaries handles GET /api/v1/lists/summary.
func (s *Server) listSummaries(c *fiber.Ctx) error {
	summaries, err := s.stats.ListSummaries(c.UserContext(), owner(c))
	if err != nil {
		return respond(c, err)
	}

	out := make([]listSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, listSummaryResponse{
			ListID:        summary.ListID,
			Title:         summary.Title,
			statsResponse: toStatsResponse(summary.Statistics),
		})
	}
	return c.JSON(out)
}

// getList handles GET /api/v1/lists/:id.
func (s *Server) getList(c *fiber.Ctx) error {
	list, err := s.lists.GetList(c.UserContext(), owner(c), c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(toListResponse(list))
}

// updateList handles PATCH /api/v1/lists/:id.
func (s *Server) updateList(c *fiber.Ctx) error {
	var req updateListRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	list, err := s.lists.UpdateList(c.UserContext(), owner(c), c.Params("id"), service.ListUpdate{
		Title:       req.Title,
		Description: req.Description,
		Version:     req.Version,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(toListResponse(list))
}

// deleteList handles DELETE /api/v1/lists/:id?policy=cascade|reject.
func (s *Server) deleteList(c *fiber.Ctx) error {
	policy := s.deletePolicy
	if raw := c.Query("policy"); raw != "" {
		parsed, err := service.ParseDeletePolicy(raw)
		if err != nil {
			return respond(c, err)
		}
		policy = parsed
	}

	if err := s.lists.DeleteList(c.UserContext(), owner(c), c.Params("id"), policy); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// createTask handles POST /api/v1/tasks.
func (s *Server) createTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	due, err := parseDate("due_date", req.DueDate)
	if err != nil {
		return respond(c, err)
	}

	task, err := s.tasks.CreateTask(c.UserContext(), owner(c), service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		ListID:      req.ListID,
		DueDate:     due,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toTaskResponse(task, s.now()))
}

// queryTasks handles GET /api/v1/tasks.
func (s *Server) queryTasks(c *fiber.Ctx) error {
	query, err := taskQueryParams(c)
	if err != nil {
		return respond(c, err)
	}

	result, err := s.tasks.QueryTasks(c.UserContext(), owner(c), query)
	if err != nil {
		return respond(c, err)
	}

	now := s.now()
	items := make([]taskResponse, 0, len(result.Items))
	for i := range result.Items {
		items = append(items, toTaskResponse(&result.Items[i], now))
	}
	return c.JSON(pageResponse[taskResponse]{
		Items:    items,
		Page:     result.Number,
		PageSize: result.Size,
		Total:    result.Total,
		HasMore:  result.HasMore(),
	})
}

// getTask handles GET /api/v1/tasks/:id.
func (s *Server) getTask(c *fiber.Ctx) error {
	task, err := s.tasks.GetTask(c.UserContext(), owner(c), c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(toTaskResponse(task, s.now()))
}

// updateTask handles PATCH /api/v1/tasks/:id.
func (s *Server) updateTask(c *fiber.Ctx) error {
	var req updateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	update := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		ListID:      req.ListID,
		Version:     req.Version,
	}
	if req.Status != nil {
		status := model.Status(strings.TrimSpace(*req.Status))
		update.Status = &status
	}
	if req.DueDate != nil {
		due, err := parseDate("due_date", *req.DueDate)
		if err != nil {
			return respond(c, err)
		}
		if due == nil {
			update.ClearDueDate = true
		} else {
			update.DueDate = due
		}
	}

	task, err := s.tasks.UpdateTask(c.UserContext(), owner(c), c.Params("id"), update)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(toTaskResponse(task, s.now()))
}

// deleteTask handles DELETE /api/v1/tasks/:id.
func (s *Server) deleteTask(c *fiber.Ctx) error {
	if err := s.tasks.DeleteTask(c.UserContext(), owner(c), c.Params("id")); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// statistics handles GET /api/v1/stats.
func (s *Server) statistics(c *fiber.Ctx) error {
	stats, err := s.stats.Statistics(c.UserContext(), owner(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(toStatsResponse(stats))
}

func pageParams(c *fiber.Ctx) (model.PageRequest, error) {
	number, err := intParam(c, "page")
	if err != nil {
		return model.PageRequest{}, err
	}
	size, err := intParam(c, "page_size")
	if err != nil {
		return model.PageRequest{}, err
	}
	return model.PageRequest{Number: number, Size: size}, nil
}

func taskQueryParams(c *fiber.Ctx) (service.TaskQuery, error) {
	var q service.TaskQuery

	page, err := pageParams(c)
	if err != nil {
		return q, err
	}
	q.Page = page

	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.Status(raw)
		q.Filter.Status = &status
	}
	if raw := strings.TrimSpace(c.Query("list_id")); raw != "" {
		q.Filter.ListID = &raw
	}
	if q.Filter.DueBefore, err = parseDate("due_before", c.Query("due_before")); err != nil {
		return q, err
	}
	if q.Filter.DueAfter, err = parseDate("due_after", c.Query("due_after")); err != nil {
		return q, err
	}
	if raw := strings.TrimSpace(c.Query("overdue")); raw != "" {
		overdue, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fieldError("overdue", "must be true or false")
		}
		q.Filter.Overdue = &overdue
	}

	q.Sort.Field = model.SortField(strings.TrimSpace(c.Query("sort")))
	switch strings.ToLower(strings.TrimSpace(c.Query("order"))) {
	case "", "desc":
	case "asc":
		q.Sort.Asc = true
	default:
		return q, fieldError("order", "must be one of: asc, desc")
	}
	return q, nil
}

func intParam(c *fiber.Ctx, key string) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fieldError(key, "must be an integer")
	}
	return n, nil
}
