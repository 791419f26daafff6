// ftx-stream/pkg/ftx/sign.go
package ftx

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// signLogin вычисляет подпись логина: HMAC-SHA256 от строки
// "{timestamp}websocket_login" под секретом, hex в нижнем регистре.
// Ключ API в подпись не входит.
func signLogin(secret string, timestampMs int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%dwebsocket_login", timestampMs)
	return hex.EncodeToString(mac.Sum(nil))
}
