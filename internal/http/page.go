package http

import (
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"go.ngs.io/reanalysis-maps/internal/domain"
	"go.ngs.io/reanalysis-maps/internal/usecase"
)

// SourceURL is the dataset page linked from every map page.
const SourceURL = "https://psl.noaa.gov/data/gridded/data.ncep.reanalysis.dailyavgs.html"

// Page messages.
const (
	msgNoData     = "선택하신 날짜에 해당하는 데이터가 없습니다. 다른 날짜를 선택해 주세요."
	msgFetchError = "데이터를 불러오는 중 오류가 발생했습니다: "
	msgOutOfRange = "선택 가능한 날짜는 %s부터 %s까지입니다."
	msgBadDate    = "날짜 형식이 올바르지 않습니다 (YYYY-MM-DD): %s"
)

//go:embed templates/page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"num": func(v *float64) string {
		if v == nil {
			return "-"
		}
		return strconv.FormatFloat(*v, 'f', 2, 64)
	},
}).Parse(pageHTML))

type variantLink struct {
	Name    string
	Label   string
	Current bool
}

type pageData struct {
	Title     string
	Variant   string
	Variants  []variantLink
	SourceURL string

	Date, Min, Max string

	Preview  *usecase.Preview
	ImageURL string
	Note     string

	Warning string
	Error   string
	Hint    string
}

// Page handles GET /:variant?date=YYYY-MM-DD.
func (h *Handler) Page(c *gin.Context) {
	variant, err := domain.VariantByName(c.Param("variant"))
	if err != nil {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}

	dates := h.mapUC.Dates()
	data := pageData{
		Title:     variant.PageTitle,
		Variant:   variant.Name,
		SourceURL: SourceURL,
		Date:      dates.Default,
		Min:       dates.Earliest,
		Max:       dates.Latest,
	}
	for _, v := range domain.Variants() {
		data.Variants = append(data.Variants, variantLink{Name: v.Name, Label: v.Label, Current: v.Name == variant.Name})
	}

	status := http.StatusOK
	date := h.mapUC.DefaultDate()
	if s := c.Query("date"); s != "" {
		data.Date = s
		if date, err = domain.ParseDate(s); err != nil {
			data.Error = fmt.Sprintf(msgBadDate, s)
			h.renderPage(c, http.StatusBadRequest, data)
			return
		}
	}

	req := usecase.MapRequest{Date: date, Variant: variant}
	preview, err := h.mapUC.Preview(c.Request.Context(), req, false)
	if err != nil {
		_ = c.Error(err)
		status = statusOf(err)
		var fetchErr *domain.FetchError
		switch {
		case errors.Is(err, domain.ErrDateOutOfRange):
			data.Warning = fmt.Sprintf(msgOutOfRange, dates.Earliest, dates.Latest)
		case errors.Is(err, domain.ErrNoData):
			data.Warning = msgNoData
		case errors.As(err, &fetchErr):
			data.Error = msgFetchError + fetchErr.Err.Error()
			data.Hint = fetchErr.Hint()
		default:
			data.Error = msgFetchError + err.Error()
		}
	} else {
		data.Preview = preview
		data.ImageURL = fmt.Sprintf("/v1/maps/%s/%s", variant.Name, date)
		data.Note = variant.Note
	}

	h.renderPage(c, status, data)
}

// renderPage renders the "page" template registered by SetupRouter.
func (h *Handler) renderPage(c *gin.Context, status int, data pageData) {
	c.HTML(status, pageTemplate.Name(), data)
}
