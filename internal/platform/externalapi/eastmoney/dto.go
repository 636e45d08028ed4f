package eastmoney

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// listResponse は clist / ulist.np 共通のレスポンスです。
// 範囲外のページでは data が null になります。
type listResponse struct {
	RC   int       `json:"rc"`
	Data *listData `json:"data"`
}

type listData struct {
	Total int        `json:"total"`
	Diff  []quoteRow `json:"diff"`
}

// quoteRow は fields=f2,f3,f12,f14 で要求した1銘柄分の値です。
type quoteRow struct {
	Price     flexFloat `json:"f2"`
	ChangePct flexFloat `json:"f3"`
	Code      string    `json:"f12"`
	Name      string    `json:"f14"`
}

// flexFloat は数値のほか、停止銘柄で返る "-" や文字列の数値を受け付けます。
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}
