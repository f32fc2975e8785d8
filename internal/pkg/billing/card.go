package billing

import (
	"fmt"
	"strings"
)

// NormalizeCard converts a gateway card document into the normalized view.
// A card without a resolvable id (from the document or the supplied
// fallback) is dropped by returning nil; one bad entry never fails a whole
// listing.
func NormalizeCard(card map[string]any, fallbackID string) *Card {
	if card == nil {
		return nil
	}

	id := stringField(card, "id", "card_id")
	if id == "" {
		id = strings.TrimSpace(fallbackID)
	}
	if id == "" {
		return nil
	}

	cardNo := stringField(card, "masked_card_no", "card_no", "card_number")

	lastFour := ""
	if digits := digitsOnly(cardNo); digits != "" {
		lastFour = trailing(digits, 4)
	} else if digits := digitsOnly(stringField(card, "last4")); digits != "" {
		lastFour = trailing(digits, 4)
	}

	expireMonth := anyField(card, "expire_month", "expiration_month")
	expireYear := anyField(card, "expire_year", "expiration_year")

	expire := ""
	if month, ok := intValue(expireMonth); ok {
		if year := stringField(card, "expire_year", "expiration_year"); year != "" {
			expire = fmt.Sprintf("%02d/%s", month, trailing(year, 2))
		}
	}
	if expire == "" {
		expire = stringField(card, "expire")
	}

	return &Card{
		ID:           id,
		Brand:        stringField(card, "brand", "card_brand", "brand_code"),
		CardNo:       cardNo,
		MaskedCardNo: cardNo,
		LastFour:     lastFour,
		Expire:       expire,
		ExpireMonth:  expireMonth,
		ExpireYear:   expireYear,
		HolderName:   stringField(card, "holder_name"),
		Fingerprint:  stringField(card, "fingerprint"),
		DefaultFlag:  anyField(card, "default_flag"),
		CardStatus:   stringField(card, "status", "card_status"),
		Raw:          card,
	}
}

// extractCardList pulls the card array out of a listing response, whatever
// envelope key the gateway used.
func extractCardList(resp map[string]any) []map[string]any {
	return listField(resp, "cards", "items", "data", "list")
}

func trailing(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
