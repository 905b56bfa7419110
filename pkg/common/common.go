package common

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"math/rand"
	"net/http"

	"golang.org/x/crypto/argon2"
)

const saltLen = 8

type Msg struct {
	Message string `json:"message"`
}

func WriteMsg(w http.ResponseWriter, msg string, code int) {
	w.WriteHeader(code)
	WriteRespJSON(w, Msg{msg})
}

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ")

func RandStringRunes(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rand.Intn(len(letterRunes))]
	}
	return string(b)
}

// HashPass returns salt followed by the argon2id key of the password.
// The salt must be saltLen bytes long.
func HashPass(plainPassword, salt string) []byte {
	hashedPass := argon2.IDKey([]byte(plainPassword), []byte(salt), 1, 64*1024, 4, 32)
	res := []byte(salt)
	return append(res, hashedPass...)
}

// CheckPass reports whether plainPassword produces the stored hash.
func CheckPass(plainPassword string, stored []byte) bool {
	if len(stored) <= saltLen {
		return false
	}
	salt := string(stored[:saltLen])
	return bytes.Equal(HashPass(plainPassword, salt), stored)
}

// NewPassHash hashes a password with a fresh random salt.
func NewPassHash(plainPassword string) []byte {
	return HashPass(plainPassword, RandStringRunes(saltLen))
}

func ParseReqBody(body io.Reader, ptr interface{}) error {
	err := json.NewDecoder(body).Decode(ptr)
	if err != nil {
		return err
	}
	return nil
}

func WriteRespJSON(w http.ResponseWriter, data interface{}) {
	resp, err := json.Marshal(data)
	if err != nil {
		log.Println("common: JSON marshaling failed", err)
		WriteMsg(w, "response failed", http.StatusInternalServerError)
		return
	}

	_, err = w.Write(resp)
	if err != nil {
		log.Println("common: failed writing response", err)
	}
}
