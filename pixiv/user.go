package pixiv

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/xeptore/flaw/v8"

	"github.com/xeptore/pxv/errutil"
	"github.com/xeptore/pxv/jsonutil"
)

// ProfileImageURLs holds the 16x16, 50x50 and 170x170 avatar URLs, in that
// order.
type ProfileImageURLs [3]string

func (p ProfileImageURLs) Px16x16() string   { return p[0] }
func (p ProfileImageURLs) Px50x50() string   { return p[1] }
func (p ProfileImageURLs) Px170x170() string { return p[2] }

// User is the profile of the account a token set was issued for.
type User struct {
	ID               ID
	Name             string
	Account          string
	MailAddress      string
	ProfileImageURLs ProfileImageURLs
	IsMailAuthorized bool
	IsPremium        bool
	XRestrict        uint8
}

type userWire struct {
	ID               ID            `json:"id"`
	Name             string        `json:"name"`
	Account          string        `json:"account"`
	MailAddress      string        `json:"mail_address"`
	ProfileImageURLs imageURLsWire `json:"profile_image_urls"`
	IsMailAuthorized bool          `json:"is_mail_authorized"`
	IsPremium        bool          `json:"is_premium"`
	XRestrict        uint8         `json:"x_restrict"`
}

type imageURLsWire struct {
	Px16x16   string `json:"px_16x16"`
	Px50x50   string `json:"px_50x50"`
	Px170x170 string `json:"px_170x170"`
}

func (u *User) UnmarshalJSON(b []byte) error {
	if !gjson.ValidBytes(b) {
		return &DecodeError{Err: flaw.From(errors.New("invalid user json")).Append(flaw.P{"raw": string(b)})}
	}
	v := gjson.ParseBytes(b)
	if !v.IsObject() {
		return &DecodeError{Err: flaw.From(fmt.Errorf("invalid type for user %s: expected an object", v.Raw))}
	}

	id, err := ParseID(v.Get("id"))
	if nil != err {
		return err
	}

	var fields struct {
		Name             string `json:"name"`
		Account          string `json:"account"`
		MailAddress      string `json:"mail_address"`
		IsMailAuthorized bool   `json:"is_mail_authorized"`
		IsPremium        bool   `json:"is_premium"`
		XRestrict        uint8  `json:"x_restrict"`
	}
	if err := json.Unmarshal(b, &fields); nil != err {
		flawP := flaw.P{"err_debug_tree": errutil.Tree(err).FlawP()}
		return &DecodeError{Err: flaw.From(fmt.Errorf("failed to decode user: %v", err)).Append(flawP)}
	}

	images := v.Get("profile_image_urls")
	*u = User{
		ID:          id,
		Name:        fields.Name,
		Account:     fields.Account,
		MailAddress: fields.MailAddress,
		ProfileImageURLs: ProfileImageURLs{
			jsonutil.String(images, "px_16x16"),
			jsonutil.String(images, "px_50x50"),
			jsonutil.String(images, "px_170x170"),
		},
		IsMailAuthorized: fields.IsMailAuthorized,
		IsPremium:        fields.IsPremium,
		XRestrict:        fields.XRestrict,
	}
	return nil
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(userWire{
		ID:          u.ID,
		Name:        u.Name,
		Account:     u.Account,
		MailAddress: u.MailAddress,
		ProfileImageURLs: imageURLsWire{
			Px16x16:   u.ProfileImageURLs.Px16x16(),
			Px50x50:   u.ProfileImageURLs.Px50x50(),
			Px170x170: u.ProfileImageURLs.Px170x170(),
		},
		IsMailAuthorized: u.IsMailAuthorized,
		IsPremium:        u.IsPremium,
		XRestrict:        u.XRestrict,
	})
}
