package core

import "evstation/types"

const AuthorizeFeatureName = "Authorize"

type AuthorizeRequest struct {
	IdToken types.IdToken `json:"idToken"`
}

type AuthorizeResponse struct {
	IdTokenInfo types.IdTokenInfo `json:"idTokenInfo"`
}

func (r AuthorizeRequest) GetFeatureName() string {
	return AuthorizeFeatureName
}

func (c AuthorizeResponse) GetFeatureName() string {
	return AuthorizeFeatureName
}

func NewAuthorizeRequest(idToken string, tokenType types.IdTokenType) *AuthorizeRequest {
	return &AuthorizeRequest{IdToken: types.IdToken{IdToken: idToken, Type: tokenType}}
}
