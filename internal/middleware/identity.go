package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/stwalsh4118/deedchain/internal/identity"
)

// WalletHeader carries the address of the wallet acting on the request.
const WalletHeader = "X-Wallet-Address"

const identityKey = "identity"

// Identity resolves the acting wallet from WalletHeader. A missing or
// malformed address yields a disconnected identity; rejecting it is left to
// the operation, since reads do not need a wallet.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := identity.New(c.GetHeader(WalletHeader))

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(identity.WithIdentity(c.Request.Context(), id))

		if log := GetLogger(c); log != nil {
			switch raw := c.GetHeader(WalletHeader); {
			case id.Connected:
				c.Set(loggerKey, log.With(map[string]interface{}{"wallet": id.Address}))
			case raw != "":
				log.Debug("Ignoring malformed wallet address", map[string]interface{}{"header": raw})
			}
		}

		c.Next()
	}
}

// GetIdentity returns the identity resolved by the Identity middleware.
func GetIdentity(c *gin.Context) identity.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(identity.Identity); ok {
			return id
		}
	}
	if c.Request != nil {
		return identity.FromContext(c.Request.Context())
	}
	return identity.Identity{}
}
