package echoapi

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/chuoapp/chuo/core"
)

// response is the uniform envelope every endpoint replies with.
type response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, response{Success: true, Data: data})
}

func respondMsg(ctx echo.Context, code int, msg string, data ...interface{}) error {
	res := response{Success: true, Message: msg}
	if len(data) > 0 {
		res.Data = data[0]
	}
	return ctx.JSON(code, res)
}

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}
