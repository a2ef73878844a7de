package mailer

import (
	"fmt"
	"html"
	"net/url"
)

// TempLoginMessage 员工账号创建后的临时登录邮件
func TempLoginMessage(to, fullName, frontendURL, token string) Message {
	link := fmt.Sprintf("%s/login?email=%s&token=%s", frontendURL, url.QueryEscape(to), token)
	return Message{
		To:      to,
		Subject: "Tài khoản nhân viên của bạn",
		HTML: fmt.Sprintf(`<p>Xin chào %s,</p>
<p>Tài khoản của bạn đã được tạo. Vui lòng đăng nhập và đổi mật khẩu trong vòng 1 phút:</p>
<p><a href="%s">%s</a></p>`, html.EscapeString(fullName), link, link),
	}
}

// VerificationMessage 注册邮箱验证
func VerificationMessage(to, frontendURL, token string) Message {
	link := fmt.Sprintf("%s/verify-account/%s", frontendURL, token)
	return Message{
		To:      to,
		Subject: "Xác thực tài khoản",
		HTML: fmt.Sprintf(`<p>Vui lòng xác thực tài khoản bằng liên kết sau:</p>
<p><a href="%s">%s</a></p>`, link, link),
	}
}
