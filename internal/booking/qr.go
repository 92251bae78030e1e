package booking

import (
    "crypto/hmac"
    "crypto/sha256"
    "encoding/binary"

    "github.com/google/uuid"
)

// QR payload layout: [8 bytes reservation id][8 bytes showing id]
// [16 bytes nonce][32 bytes HMAC-SHA256 over the first 32 bytes].
// The payload is opaque to clients; rendering it as an actual QR image
// is the notification service's concern.
const qrPayloadLen = 8 + 8 + 16 + sha256.Size

// QRPayload derives the opaque payload stored on a reservation from its
// id, the showing id, a random nonce and the server secret.  The HMAC
// lets the ticket scanner verify authenticity offline.
func QRPayload(secret []byte, reservationID, showingID uint64, nonce uuid.UUID) []byte {
    out := make([]byte, 0, qrPayloadLen)
    var buf [8]byte
    binary.BigEndian.PutUint64(buf[:], reservationID)
    out = append(out, buf[:]...)
    binary.BigEndian.PutUint64(buf[:], showingID)
    out = append(out, buf[:]...)
    out = append(out, nonce[:]...)
    mac := hmac.New(sha256.New, secret)
    mac.Write(out)
    return mac.Sum(out)
}

// VerifyQRPayload checks the HMAC and extracts the reservation and
// showing ids.  It reports ok=false for truncated or tampered payloads.
func VerifyQRPayload(secret, payload []byte) (reservationID, showingID uint64, ok bool) {
    if len(payload) != qrPayloadLen {
        return 0, 0, false
    }
    body, sum := payload[:qrPayloadLen-sha256.Size], payload[qrPayloadLen-sha256.Size:]
    mac := hmac.New(sha256.New, secret)
    mac.Write(body)
    if !hmac.Equal(mac.Sum(nil), sum) {
        return 0, 0, false
    }
    return binary.BigEndian.Uint64(body[0:8]), binary.BigEndian.Uint64(body[8:16]), true
}
