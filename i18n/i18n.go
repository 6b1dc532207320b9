// Package i18n provides the Arabic/English labels used by rendered reports and
// the language negotiation helpers used by the preferences middleware.
package i18n

import (
	"context"
	"strings"

	"golang.org/x/text/language"
)

const (
	LangArabic  = "ar"
	LangEnglish = "en"
	DefaultLang = LangArabic
)

var supported = []language.Tag{language.Arabic, language.English}

var matcher = language.NewMatcher(supported)

var dict = map[string]map[string]string{
	LangArabic: {
		"required":              "مطلوب",
		"invalid_email":         "بريد إلكتروني غير صالح",
		"invalid_number":        "رقم غير صالح",
		"invalid_date":          "تاريخ غير صالح",
		"invalid_choice":        "قيمة غير مسموحة",
		"must_not_be_negative":  "يجب ألا تكون القيمة سالبة",
		"out_of_range":          "خارج النطاق المسموح",
		"too_many_decimals":     "يسمح بمنزلتين عشريتين كحد أقصى",
		"already_exists":        "موجود مسبقاً",
		"too_long":              "النص طويل جداً",
		"customer_has_invoices": "لا يمكن حذف عميل لديه فواتير",

		"invoice":           "فاتورة",
		"customer":          "العميل",
		"date":              "التاريخ",
		"due_date":          "تاريخ الاستحقاق",
		"status":            "الحالة",
		"type":              "النوع",
		"description":       "الوصف",
		"document_number":   "رقم المستند",
		"meter_number":      "رقم العداد",
		"previous_reading":  "القراءة السابقة",
		"current_reading":   "القراءة الحالية",
		"unit_price":        "قيمة الوحدة",
		"price":             "السعر",
		"total":             "المجموع",
		"subtotal":          "المجموع الجزئي",
		"discount":          "الخصم",
		"grand_total":       "المجموع الإجمالي",
		"notes":             "ملاحظات",
		"account_statement": "كشف حساب العميل",
		"debit_side":        "الجانب المدين (الفواتير)",
		"credit_side":       "الجانب الدائن (المدفوعات)",
		"entry_number":      "قيد رقم",
		"total_debit":       "إجمالي المدين",
		"total_credit":      "إجمالي الدائن",
		"current_balance":   "الرصيد الحالي",
		"debtor":            "مديون",
		"creditor":          "دائن",
		"no_transactions":   "لا توجد معاملات",

		"status_pending": "معلقة",
		"status_paid":    "مدفوعة",
		"status_overdue": "متأخرة",

		"type_monthly":    "رسوم شهرية",
		"type_commercial": "عداد تجاري",
		"type_statement":  "كشف حساب",
		"type_revenue":    "إيراد",
		"type_expense":    "مصروف",
		"type_payment":    "سداد",

		"payment_description":    "سداد فاتورة",
		"commercial_description": "فاتورة العداد التجاري",
	},
	LangEnglish: {
		"required":              "Required",
		"invalid_email":         "Invalid email",
		"invalid_number":        "Invalid number",
		"invalid_date":          "Invalid date",
		"invalid_choice":        "Invalid choice",
		"must_not_be_negative":  "Must not be negative",
		"out_of_range":          "Out of range",
		"too_many_decimals":     "At most two decimal places",
		"already_exists":        "Already exists",
		"too_long":              "Too long",
		"customer_has_invoices": "Customer has invoices",

		"invoice":           "Invoice",
		"customer":          "Customer",
		"date":              "Date",
		"due_date":          "Due date",
		"status":            "Status",
		"type":              "Type",
		"description":       "Description",
		"document_number":   "Document no.",
		"meter_number":      "Meter no.",
		"previous_reading":  "Previous reading",
		"current_reading":   "Current reading",
		"unit_price":        "Unit price",
		"price":             "Price",
		"total":             "Total",
		"subtotal":          "Subtotal",
		"discount":          "Discount",
		"grand_total":       "Grand total",
		"notes":             "Notes",
		"account_statement": "Customer account statement",
		"debit_side":        "Debit (invoices)",
		"credit_side":       "Credit (payments)",
		"entry_number":      "Entry no.",
		"total_debit":       "Total debit",
		"total_credit":      "Total credit",
		"current_balance":   "Current balance",
		"debtor":            "owed",
		"creditor":          "in credit",
		"no_transactions":   "No transactions",

		"status_pending": "Pending",
		"status_paid":    "Paid",
		"status_overdue": "Overdue",

		"type_monthly":    "Monthly fee",
		"type_commercial": "Commercial meter",
		"type_statement":  "Statement",
		"type_revenue":    "Revenue",
		"type_expense":    "Expense",
		"type_payment":    "Payment",

		"payment_description":    "Invoice payment",
		"commercial_description": "Commercial meter invoice",
	},
}

// T translates code for lang, falling back to Arabic and then to the code itself.
func T(lang, code string) string {
	if m, ok := dict[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := dict[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Normalize maps any user supplied language value onto a supported one.
func Normalize(lang string) string {
	l := strings.ToLower(strings.TrimSpace(lang))
	if _, ok := dict[l]; ok {
		return l
	}
	return DetectLanguage(lang)
}

// DetectLanguage picks the best supported language from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	if supported[idx] == language.English {
		return LangEnglish
	}
	return LangArabic
}

// Dir returns the text direction for lang.
func Dir(lang string) string {
	if lang == LangArabic {
		return "rtl"
	}
	return "ltr"
}

type ctxKey struct{}

// WithLang stores the negotiated language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, ctxKey{}, lang)
}

// LangFrom returns the language stored in ctx or DefaultLang.
func LangFrom(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok && v != "" {
		return v
	}
	return DefaultLang
}
