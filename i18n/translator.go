package i18n

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "field" or "got").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch code {
		case "duplicate_schema":
			return "スキーマ名が重複しています"
		case "unresolved_reference":
			return "参照先スキーマが未登録です"
		case "schema_not_found":
			return "スキーマが見つかりません"
		case "unknown_field":
			return "未知のフィールドです"
		case "type_mismatch":
			return "型が不正です"
		case "constraint_violation":
			return "制約違反です"
		case "missing_field":
			return "必須フィールドが不足しています"
		case "unknown_operation":
			return "未知の操作です"
		case "dispatch_failure":
			return "操作の実行に失敗しました"
		case "discriminator_missing":
			return "判別キーがありません"
		case "discriminator_unknown":
			return "未知の判別値です"
		case "choice_ambiguous":
			return "候補が一意に定まりません"
		case "missing_argument":
			return "必須引数が不足しています"
		case "generator_failure":
			return "既定値の生成に失敗しました"
		case "max_depth":
			return "ネストが深すぎます"
		case "parse_error":
			return "解析エラー"
		case "invalid_bundle":
			return "スキーマバンドルが不正です"
		case "invalid_default":
			return "既定値が不正です"
		case "invalid_pattern":
			return "正規表現が不正です"
		case "unknown_kind":
			return "未知のフィールド種別です"
		}
	default: // "en"
		switch code {
		case "duplicate_schema":
			return "schema already registered"
		case "unresolved_reference":
			return "reference to unregistered schema"
		case "schema_not_found":
			return "schema not found"
		case "unknown_field":
			return "unknown field"
		case "type_mismatch":
			return "type mismatch"
		case "constraint_violation":
			return "constraint violated"
		case "missing_field":
			return "required field missing"
		case "unknown_operation":
			return "unknown operation"
		case "dispatch_failure":
			return "operation failed"
		case "discriminator_missing":
			return "discriminator key missing"
		case "discriminator_unknown":
			return "unknown discriminator value"
		case "choice_ambiguous":
			return "value matches more than one choice member"
		case "missing_argument":
			return "required argument missing"
		case "generator_failure":
			return "default generator failed"
		case "max_depth":
			return "maximum nesting depth exceeded"
		case "parse_error":
			return "parse error"
		case "invalid_bundle":
			return "invalid schema bundle"
		case "invalid_default":
			return "invalid default value"
		case "invalid_pattern":
			return "invalid pattern"
		case "unknown_kind":
			return "unknown field kind"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
