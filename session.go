package docent

import (
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
)

// Session keys. A description is always written together with the image
// reference it describes.
const (
	keyInputURL     = "input_url"
	keyURLResult    = "result_url"
	keyPreviewPath  = "img_path"
	keyPublishedURL = "img_url"
	keyFileResult   = "result_file"
)

// sessionState is the per-browser UI state. Nothing here outlives the session.
type sessionState struct {
	InputURL        string
	URLDescription  string
	PreviewPath     string
	PublishedURL    string
	FileDescription string

	sess *sessions.Session
}

// loadState reads the session; a missing or undecodable session yields empty state.
func loadState(c echo.Context) *sessionState {
	st := &sessionState{}
	sess, err := session.Get(sessionName, c)
	if err != nil {
		c.Logger().Warnf("session: %v", err)
	}
	if sess == nil {
		return st
	}
	st.sess = sess
	st.InputURL = stringValue(sess, keyInputURL)
	st.URLDescription = stringValue(sess, keyURLResult)
	st.PreviewPath = stringValue(sess, keyPreviewPath)
	st.PublishedURL = stringValue(sess, keyPublishedURL)
	st.FileDescription = stringValue(sess, keyFileResult)
	return st
}

func stringValue(sess *sessions.Session, key string) string {
	v, _ := sess.Values[key].(string)
	return v
}

// setURLResult records a successfully described URL.
func (st *sessionState) setURLResult(imageURL, description string) {
	st.InputURL = imageURL
	st.URLDescription = description
}

// setFileResult records a successfully published and described upload.
func (st *sessionState) setFileResult(previewPath, publishedURL, description string) {
	st.PreviewPath = previewPath
	st.PublishedURL = publishedURL
	st.FileDescription = description
}

func (st *sessionState) save(c echo.Context) error {
	if st.sess == nil {
		return nil
	}
	put := func(key, val string) {
		if val == "" {
			delete(st.sess.Values, key)
			return
		}
		st.sess.Values[key] = val
	}
	put(keyInputURL, st.InputURL)
	put(keyURLResult, st.URLDescription)
	put(keyPreviewPath, st.PreviewPath)
	put(keyPublishedURL, st.PublishedURL)
	put(keyFileResult, st.FileDescription)
	return st.sess.Save(c.Request(), c.Response())
}

// clear expires the session cookie and forgets all results.
func (st *sessionState) clear(c echo.Context) error {
	*st = sessionState{sess: st.sess}
	if st.sess == nil {
		return nil
	}
	st.sess.Values = map[interface{}]interface{}{}
	if st.sess.Options == nil {
		st.sess.Options = &sessions.Options{Path: "/"}
	}
	st.sess.Options.MaxAge = -1
	return st.sess.Save(c.Request(), c.Response())
}
