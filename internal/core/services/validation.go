package services

import (
	"NaijaAuto/internal/core/domain"
	"NaijaAuto/internal/core/fraud"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

func newValidator(now func() time.Time) *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// maxyear bounds model years to next calendar year.
	_ = v.RegisterValidation("maxyear", func(fl validator.FieldLevel) bool {
		return fl.Field().Int() <= int64(now().Year()+1)
	})
	return v
}

// decode unmarshals a raw payload into dst and validates it.
func (s *MarketplaceService) decode(payload []byte, dst any) error {
	if len(payload) == 0 {
		payload = []byte("{}")
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return domain.ValidationError([]domain.FieldError{{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s must be a valid %s.", typeErr.Field, typeErr.Type.Kind()),
			}})
		}
		return domain.ValidationError([]domain.FieldError{{Message: "Payload must be a JSON object."}})
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	return s.check(dst)
}

func (s *MarketplaceService) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ValidationError(nil)
	}
	fields := make([]domain.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, domain.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return domain.ValidationError(fields)
}

func fieldMessage(fe validator.FieldError) string {
	name := fe.Field()
	unit := ""
	switch fe.Kind() {
	case reflect.String:
		unit = " characters"
	case reflect.Slice:
		unit = " items"
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", name)
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s%s.", name, fe.Param(), unit)
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s%s.", name, fe.Param(), unit)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", name, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s%s.", name, fe.Param(), unit)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", name, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid URL.", name)
	case "uuid":
		return fmt.Sprintf("%s must be a valid id.", name)
	case "numeric":
		return fmt.Sprintf("%s must contain digits only.", name)
	case "maxyear":
		return fmt.Sprintf("%s cannot be later than next year.", name)
	default:
		return fmt.Sprintf("%s is invalid.", name)
	}
}

type normalizer interface {
	normalize()
}

// listingInput is the full vehicle payload accepted on create. Updates are
// merged onto the stored listing and validated against the same rules.
type listingInput struct {
	Title           string   `json:"title" validate:"required,min=10,max=120"`
	Description     string   `json:"description" validate:"required,min=40,max=5000"`
	PriceNgn        int64    `json:"priceNgn" validate:"required,min=500000,max=500000000"`
	Year            int      `json:"year" validate:"required,min=1980,maxyear"`
	Make            string   `json:"make" validate:"required,min=2,max=50"`
	Model           string   `json:"model" validate:"required,min=1,max=50"`
	BodyType        string   `json:"bodyType" validate:"required,oneof=car suv pickup"`
	MileageKm       *int     `json:"mileageKm" validate:"required,min=0,max=2000000"`
	Transmission    string   `json:"transmission" validate:"required,oneof=automatic manual"`
	FuelType        string   `json:"fuelType" validate:"required,oneof=petrol diesel hybrid electric"`
	VIN             string   `json:"vin" validate:"required,len=17"`
	State           string   `json:"state" validate:"required,min=2,max=40"`
	City            string   `json:"city" validate:"required,min=2,max=50"`
	Lat             *float64 `json:"lat" validate:"required,min=-90,max=90"`
	Lng             *float64 `json:"lng" validate:"required,min=-180,max=180"`
	Photos          []string `json:"photos" validate:"required,min=1,max=30,dive,url"`
	ContactPhone    string   `json:"contactPhone" validate:"required,min=10,max=20"`
	ContactWhatsapp string   `json:"contactWhatsapp" validate:"required,min=10,max=20"`
}

func (in *listingInput) normalize() {
	in.VIN = fraud.NormalizeVIN(in.VIN)
}

func listingInputFrom(l *domain.Listing) listingInput {
	mileage, lat, lng := l.MileageKm, l.Lat, l.Lng
	return listingInput{
		Title:           l.Title,
		Description:     l.Description,
		PriceNgn:        l.PriceNgn,
		Year:            l.Year,
		Make:            l.Make,
		Model:           l.Model,
		BodyType:        string(l.BodyType),
		MileageKm:       &mileage,
		Transmission:    string(l.Transmission),
		FuelType:        string(l.FuelType),
		VIN:             l.VIN,
		State:           l.State,
		City:            l.City,
		Lat:             &lat,
		Lng:             &lng,
		Photos:          append([]string(nil), l.Photos...),
		ContactPhone:    l.ContactPhone,
		ContactWhatsapp: l.ContactWhatsapp,
	}
}

// applyTo copies the vehicle fields onto l.
func (in listingInput) applyTo(l *domain.Listing) {
	l.Title = in.Title
	l.Description = in.Description
	l.PriceNgn = in.PriceNgn
	l.Year = in.Year
	l.Make = in.Make
	l.Model = in.Model
	l.BodyType = domain.BodyType(in.BodyType)
	l.MileageKm = *in.MileageKm
	l.Transmission = domain.Transmission(in.Transmission)
	l.FuelType = domain.FuelType(in.FuelType)
	l.VIN = in.VIN
	l.State = in.State
	l.City = in.City
	l.Lat = *in.Lat
	l.Lng = *in.Lng
	l.Photos = append([]string(nil), in.Photos...)
	l.ContactPhone = in.ContactPhone
	l.ContactWhatsapp = in.ContactWhatsapp
}

// listingPatch is a partial update; nil fields are left unchanged.
type listingPatch struct {
	Title           *string   `json:"title"`
	Description     *string   `json:"description"`
	PriceNgn        *int64    `json:"priceNgn"`
	Year            *int      `json:"year"`
	Make            *string   `json:"make"`
	Model           *string   `json:"model"`
	BodyType        *string   `json:"bodyType"`
	MileageKm       *int      `json:"mileageKm"`
	Transmission    *string   `json:"transmission"`
	FuelType        *string   `json:"fuelType"`
	VIN             *string   `json:"vin"`
	State           *string   `json:"state"`
	City            *string   `json:"city"`
	Lat             *float64  `json:"lat"`
	Lng             *float64  `json:"lng"`
	Photos          *[]string `json:"photos"`
	ContactPhone    *string   `json:"contactPhone"`
	ContactWhatsapp *string   `json:"contactWhatsapp"`
}

func (p listingPatch) merge(base listingInput) listingInput {
	set(&base.Title, p.Title)
	set(&base.Description, p.Description)
	set(&base.PriceNgn, p.PriceNgn)
	set(&base.Year, p.Year)
	set(&base.Make, p.Make)
	set(&base.Model, p.Model)
	set(&base.BodyType, p.BodyType)
	set(&base.Transmission, p.Transmission)
	set(&base.FuelType, p.FuelType)
	set(&base.VIN, p.VIN)
	set(&base.State, p.State)
	set(&base.City, p.City)
	set(&base.Photos, p.Photos)
	set(&base.ContactPhone, p.ContactPhone)
	set(&base.ContactWhatsapp, p.ContactWhatsapp)
	if p.MileageKm != nil {
		base.MileageKm = p.MileageKm
	}
	if p.Lat != nil {
		base.Lat = p.Lat
	}
	if p.Lng != nil {
		base.Lng = p.Lng
	}
	base.normalize()
	return base
}

func (p listingPatch) touchesSlug() bool {
	return p.Make != nil || p.Model != nil || p.City != nil || p.Year != nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// payloadKeys lists the top-level keys present in a JSON object, sorted.
func payloadKeys(payload []byte) []string {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

type searchInput struct {
	Query       string `json:"query"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	State       string `json:"state"`
	City        string `json:"city"`
	BodyType    string `json:"bodyType" validate:"omitempty,oneof=car suv pickup"`
	MinPriceNgn *int64 `json:"minPriceNgn" validate:"omitempty,gt=0"`
	MaxPriceNgn *int64 `json:"maxPriceNgn" validate:"omitempty,gt=0"`
	MinYear     *int   `json:"minYear" validate:"omitempty,min=1980"`
	MaxYear     *int   `json:"maxYear" validate:"omitempty,maxyear"`
	Page        *int   `json:"page" validate:"omitempty,gt=0"`
	PageSize    *int   `json:"pageSize" validate:"omitempty,min=1,max=50"`
}

const (
	defaultPage     = 1
	defaultPageSize = 20
)

func (in searchInput) filter() domain.ListingFilter {
	f := domain.ListingFilter{
		Query:       in.Query,
		Make:        in.Make,
		Model:       in.Model,
		State:       in.State,
		City:        in.City,
		BodyType:    domain.BodyType(in.BodyType),
		MinPriceNgn: in.MinPriceNgn,
		MaxPriceNgn: in.MaxPriceNgn,
		MinYear:     in.MinYear,
		MaxYear:     in.MaxYear,
		Page:        defaultPage,
		PageSize:    defaultPageSize,
	}
	if in.Page != nil {
		f.Page = *in.Page
	}
	if in.PageSize != nil {
		f.PageSize = *in.PageSize
	}
	return f
}

type sendOtpInput struct {
	Phone string `json:"phone" validate:"required,min=10,max=20"`
}

type verifyOtpInput struct {
	Phone string `json:"phone" validate:"required,min=10,max=20"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type contactInput struct {
	Channel string `json:"channel" validate:"required,oneof=phone whatsapp"`
}

type checkoutInput struct {
	ListingID   string `json:"listingId" validate:"required,uuid"`
	PackageCode string `json:"packageCode" validate:"required,min=2,max=30"`
}

type decisionInput struct {
	Reason *string `json:"reason" validate:"omitempty,min=5,max=500"`
}

func (in *decisionInput) normalize() {
	if in.Reason != nil {
		r := strings.TrimSpace(*in.Reason)
		in.Reason = &r
	}
}

type onboardingInput struct {
	SellerType   string  `json:"sellerType" validate:"required,oneof=dealer private"`
	FullName     string  `json:"fullName" validate:"required,min=2,max=100"`
	State        string  `json:"state" validate:"required,min=2,max=40"`
	City         string  `json:"city" validate:"required,min=2,max=50"`
	Bio          *string `json:"bio" validate:"omitempty,max=500"`
	BusinessName *string `json:"businessName" validate:"omitempty,max=120"`
	CacNumber    *string `json:"cacNumber" validate:"omitempty,max=80"`
	Address      *string `json:"address" validate:"omitempty,max=200"`
}

func (in *onboardingInput) normalize() {
	in.FullName = strings.TrimSpace(in.FullName)
	in.State = strings.TrimSpace(in.State)
	in.City = strings.TrimSpace(in.City)
	in.Bio = optionalText(in.Bio)
	in.BusinessName = optionalText(in.BusinessName)
	in.CacNumber = optionalText(in.CacNumber)
	in.Address = optionalText(in.Address)
}

// dealerRule requires a business name for dealer accounts.
func (in *onboardingInput) dealerRule() error {
	if in.SellerType == string(domain.SellerDealer) && in.BusinessName == nil {
		return domain.ValidationError([]domain.FieldError{{
			Field:   "businessName",
			Message: "Business name is required for dealer accounts.",
		}})
	}
	return nil
}

// optionalText trims s and turns blank text into nil.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
