// file: internals/helpers/reporting/rollbar.go
package reporting

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
)

/*
Reporter event penting (checksum mismatch, job gagal) ke Rollbar.
Tanpa token → rollbar dimatikan, event tetap masuk log.
*/

func Init(token, env, codeVersion string) {
	rollbar.SetToken(token)
	rollbar.SetEnvironment(env)
	rollbar.SetCodeVersion(codeVersion)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(token != "")
	if token == "" {
		log.Println("[INFO] Rollbar token kosong, reporting dimatikan")
	}
}

// Warning: event security / data yang perlu dilihat manusia.
func Warning(msg string, extras map[string]interface{}) {
	log.Printf("[WARN] %s %v", msg, extras)
	rollbar.Warning(msg, extras)
}

func Error(msg string, err error, extras map[string]interface{}) {
	log.Printf("[ERROR] %s: %v %v", msg, err, extras)
	rollbar.Error(err, extras)
}

// Close menunggu antrian rollbar terkirim (dipanggil saat shutdown).
func Close() {
	rollbar.Close()
}
