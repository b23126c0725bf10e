// backend/src/handlers/entry_handler.go
package handlers

import (
	"database/sql"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/username/finentry/backend/src/logger"
	"github.com/username/finentry/backend/src/models"
	"github.com/username/finentry/backend/src/security/validation"
	"github.com/username/finentry/backend/src/store"
)

// InvestmentMode is the form mode that is not a movement type: it switches the
// form to the investment field set.
const InvestmentMode = "Investment"

const (
	flashCookieName = "finentry_flash"
	dateLayout      = "2006-01-02"
)

// EntryHandler drives the two-branch data-entry workflow: render the form for
// the selected mode, validate a submission, persist exactly one row.
type EntryHandler struct {
	db        *sql.DB
	templates *template.Template
}

func NewEntryHandler(db *sql.DB, templates *template.Template) *EntryHandler {
	return &EntryHandler{db: db, templates: templates}
}

// EntryForm is the short-lived view-model for one interaction cycle. It is
// built fresh from the request on every cycle; after a successful save only
// the date (and the selected mode) survive into the next cycle.
type EntryForm struct {
	Mode string

	// Expense/Income branch
	Amount        string
	Currency      string
	Category      string
	Date          string
	Source        string
	PaymentMethod string
	Notes         string

	// Investment branch
	Ticker      string
	ProductType string
	UnitPrice   string
	Quantity    string
}

type entryPage struct {
	Form           EntryForm
	Modes          []string
	Categories     []models.Choice
	PaymentMethods []models.Choice
	ProductTypes   []models.Choice
	Currencies     []string
	Username       string
	Investment     bool
	Error          string
	Flash          string
}

// vocabularies holds the four lookup tables read at handler entry. They are
// reloaded on every interaction cycle.
type vocabularies struct {
	movementTypes  *store.Vocabulary
	categories     *store.Vocabulary
	paymentMethods *store.Vocabulary
	productTypes   *store.Vocabulary
}

func (h *EntryHandler) loadVocabularies() (*vocabularies, error) {
	v := &vocabularies{}
	var err error
	if v.movementTypes, err = store.LoadVocabulary(h.db, store.MovementTypes); err != nil {
		return nil, err
	}
	if v.categories, err = store.LoadVocabulary(h.db, store.Categories); err != nil {
		return nil, err
	}
	if v.paymentMethods, err = store.LoadVocabulary(h.db, store.PaymentMethods); err != nil {
		return nil, err
	}
	if v.productTypes, err = store.LoadVocabulary(h.db, store.ProductTypes); err != nil {
		return nil, err
	}
	return v, nil
}

// modes returns the mode choices: every movement type name plus "Investment".
func (v *vocabularies) modes() []string {
	return append(v.movementTypes.Names(), InvestmentMode)
}

func (v *vocabularies) validMode(mode string) bool {
	if mode == InvestmentMode {
		return true
	}
	_, ok := v.movementTypes.IDByName(mode)
	return ok
}

// ShowForm renders the entry form for the mode in ?type= (defaulting to the
// first movement type). ?date= carries the session-durable date across saves.
func (h *EntryHandler) ShowForm(w http.ResponseWriter, r *http.Request) {
	vocab, err := h.loadVocabularies()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load lookup tables", "error", err)
		http.Error(w, "failed to load lookup tables", http.StatusInternalServerError)
		return
	}

	form := EntryForm{
		Mode:     r.URL.Query().Get("type"),
		Date:     r.URL.Query().Get("date"),
		Currency: "EUR",
	}
	if !vocab.validMode(form.Mode) {
		form.Mode = vocab.modes()[0]
	}
	if _, err := time.Parse(dateLayout, form.Date); err != nil {
		form.Date = time.Now().Format(dateLayout)
	}

	h.renderForm(w, r, http.StatusOK, vocab, form, "", readFlash(w, r))
}

// Submit validates one submission and persists exactly one row. On validation
// failure the form is re-rendered with a message and every entered value
// preserved; nothing is persisted.
func (h *EntryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}

	vocab, err := h.loadVocabularies()
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to load lookup tables", "error", err)
		http.Error(w, "failed to load lookup tables", http.StatusInternalServerError)
		return
	}

	form := bindEntryForm(r)
	if form.Mode == InvestmentMode {
		h.submitInvestment(w, r, vocab, form)
		return
	}
	h.submitTransaction(w, r, vocab, form)
}

func bindEntryForm(r *http.Request) EntryForm {
	return EntryForm{
		Mode:          r.PostFormValue("type"),
		Amount:        r.PostFormValue("amount"),
		Currency:      r.PostFormValue("currency"),
		Category:      r.PostFormValue("category"),
		Date:          r.PostFormValue("date"),
		Source:        r.PostFormValue("source"),
		PaymentMethod: r.PostFormValue("payment_method"),
		Notes:         r.PostFormValue("notes"),
		Ticker:        r.PostFormValue("ticker"),
		ProductType:   r.PostFormValue("product_type"),
		UnitPrice:     r.PostFormValue("unit_price"),
		Quantity:      r.PostFormValue("quantity"),
	}
}

func (h *EntryHandler) submitTransaction(w http.ResponseWriter, r *http.Request, vocab *vocabularies, form EntryForm) {
	ctxLogger := logger.FromContext(r.Context())

	movementTypeID, ok := vocab.movementTypes.IDByName(form.Mode)
	if !ok {
		h.reject(w, r, vocab, form, "Unknown entry type.")
		return
	}

	// Validation order is fixed: amount first, then category.
	amount, err := validation.ParseDecimal(form.Amount, "amount", validation.AmountPlaces)
	if err != nil {
		h.reject(w, r, vocab, form, "Amount must be greater than zero.")
		return
	}
	if err := validation.RequirePositive(amount, "amount"); err != nil {
		h.reject(w, r, vocab, form, "Amount must be greater than zero.")
		return
	}

	categoryID, ok := vocab.categories.IDByName(form.Category)
	if !ok {
		h.reject(w, r, vocab, form, "You must choose a category.")
		return
	}

	if err := validation.ValidateCurrency(form.Currency); err != nil {
		h.reject(w, r, vocab, form, "Choose one of the supported currencies.")
		return
	}

	date, err := normalizeDate(form.Date)
	if err != nil {
		h.reject(w, r, vocab, form, "Date must be in YYYY-MM-DD format.")
		return
	}

	source, err := optionalText(form.Source, validation.MaxSourceLength, "source")
	if err != nil {
		h.reject(w, r, vocab, form, "Source is too long.")
		return
	}
	notes, err := optionalText(form.Notes, validation.MaxNotesLength, "notes")
	if err != nil {
		h.reject(w, r, vocab, form, "Notes are too long.")
		return
	}

	// The empty "none" option maps to NULL; unknown names are treated the
	// same rather than failing the whole submission.
	var paymentMethodID *int64
	if id, ok := vocab.paymentMethods.IDByName(form.PaymentMethod); ok {
		paymentMethodID = &id
	}

	tx := &models.Transaction{
		TransactionDate: date,
		MovementTypeID:  movementTypeID,
		Amount:          amount,
		Currency:        form.Currency,
		CategoryID:      categoryID,
		PaymentMethodID: paymentMethodID,
		Source:          source,
		Notes:           notes,
	}
	if err := store.InsertTransaction(h.db, tx); err != nil {
		ctxLogger.Error("Failed to save transaction", "error", err)
		h.renderForm(w, r, http.StatusInternalServerError, vocab, form, "Error saving: "+err.Error(), "")
		return
	}

	ctxLogger.Info("Transaction saved", "id", tx.ID, "movementType", form.Mode, "amount", amount.String(), "currency", tx.Currency)
	h.redirectAfterSave(w, r, form.Mode, date)
}

func (h *EntryHandler) submitInvestment(w http.ResponseWriter, r *http.Request, vocab *vocabularies, form EntryForm) {
	ctxLogger := logger.FromContext(r.Context())

	// Validation order is fixed: ticker, then price/quantity together, then
	// product type.
	ticker := validation.SanitizeFreeText(form.Ticker)
	if err := validation.ValidateStringNotEmpty(ticker, "ticker"); err != nil {
		h.reject(w, r, vocab, form, "Ticker is required for investments.")
		return
	}
	if err := validation.ValidateStringMaxLength(ticker, validation.MaxTickerLength, "ticker"); err != nil {
		h.reject(w, r, vocab, form, "Ticker is too long.")
		return
	}

	unitPrice, priceErr := validation.ParseDecimal(form.UnitPrice, "unit price", validation.PricePlaces)
	quantity, qtyErr := validation.ParseDecimal(form.Quantity, "quantity", validation.QuantityPlaces)
	if priceErr != nil || qtyErr != nil || !unitPrice.IsPositive() || !quantity.IsPositive() {
		h.reject(w, r, vocab, form, "Price and quantity must be greater than zero.")
		return
	}

	productTypeID, ok := vocab.productTypes.IDByName(form.ProductType)
	if !ok {
		h.reject(w, r, vocab, form, "You must choose a product type.")
		return
	}

	if err := validation.ValidateCurrency(form.Currency); err != nil {
		h.reject(w, r, vocab, form, "Choose one of the supported currencies.")
		return
	}

	date, err := normalizeDate(form.Date)
	if err != nil {
		h.reject(w, r, vocab, form, "Date must be in YYYY-MM-DD format.")
		return
	}

	notes, err := optionalText(form.Notes, validation.MaxNotesLength, "notes")
	if err != nil {
		h.reject(w, r, vocab, form, "Notes are too long.")
		return
	}

	inv := &models.Investment{
		InvestmentDate: date,
		Ticker:         ticker,
		ProductTypeID:  productTypeID,
		UnitPrice:      unitPrice,
		Quantity:       quantity,
		TotalValue:     unitPrice.Mul(quantity).Round(validation.PricePlaces),
		Currency:       form.Currency,
		Notes:          notes,
	}
	if err := store.InsertInvestment(h.db, inv); err != nil {
		ctxLogger.Error("Failed to save investment", "error", err)
		h.renderForm(w, r, http.StatusInternalServerError, vocab, form, "Error saving: "+err.Error(), "")
		return
	}

	ctxLogger.Info("Investment saved", "id", inv.ID, "ticker", inv.Ticker, "totalValue", inv.TotalValue.String())
	h.redirectAfterSave(w, r, form.Mode, date)
}

// reject re-renders the form with a validation message, preserving every
// entered value. Nothing is persisted.
func (h *EntryHandler) reject(w http.ResponseWriter, r *http.Request, vocab *vocabularies, form EntryForm, message string) {
	logger.FromContext(r.Context()).Debug("Submission rejected", "mode", form.Mode, "reason", message)
	h.renderForm(w, r, http.StatusUnprocessableEntity, vocab, form, message, "")
}

// redirectAfterSave performs the post-submit reset: the next cycle starts from
// a fresh view-model, carrying over only the selected mode and the
// session-durable date.
func (h *EntryHandler) redirectAfterSave(w http.ResponseWriter, r *http.Request, mode, date string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    url.QueryEscape("Saved."),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/?type="+url.QueryEscape(mode)+"&date="+url.QueryEscape(date), http.StatusSeeOther)
}

func (h *EntryHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, vocab *vocabularies, form EntryForm, errMsg, flash string) {
	username, _ := GetUsernameFromContext(r.Context())
	page := entryPage{
		Form:           form,
		Modes:          vocab.modes(),
		Categories:     vocab.categories.Choices(),
		PaymentMethods: vocab.paymentMethods.Choices(),
		ProductTypes:   vocab.productTypes.Choices(),
		Currencies:     validation.AllowedCurrencies,
		Username:       username,
		Investment:     form.Mode == InvestmentMode,
		Error:          errMsg,
		Flash:          flash,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.ExecuteTemplate(w, "entry.html", page); err != nil {
		logger.FromContext(r.Context()).Error("Failed to render entry form", "error", err)
	}
}

// normalizeDate validates the submitted date, defaulting to today when empty.
func normalizeDate(s string) (string, error) {
	if s == "" {
		return time.Now().Format(dateLayout), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return "", err
	}
	return t.Format(dateLayout), nil
}

// optionalText sanitizes a free-text field, mapping the empty result to NULL.
func optionalText(s string, maxLength int, fieldName string) (*string, error) {
	clean := validation.SanitizeFreeText(s)
	if clean == "" {
		return nil, nil
	}
	if err := validation.ValidateStringMaxLength(clean, maxLength, fieldName); err != nil {
		return nil, err
	}
	return &clean, nil
}

// readFlash consumes the one-shot flash cookie set after a successful save.
func readFlash(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookieName, Value: "", Path: "/", MaxAge: -1})
	value, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return ""
	}
	return value
}
