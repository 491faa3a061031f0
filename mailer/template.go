package mailer

const verificationSubject = "Código de Verificação - Todo App"

const verificationHTML = `<html>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background-color: #f8f9fa; padding: 30px; border-radius: 10px; text-align: center;">
    <h1 style="color: #333; margin-bottom: 20px;">Todo App</h1>
    <h2 style="color: #007bff; margin-bottom: 30px;">Código de Verificação</h2>
    <p style="font-size: 16px; color: #666; margin-bottom: 30px;">Use o código abaixo para verificar sua conta:</p>
    <div style="background-color: #007bff; color: white; font-size: 32px; font-weight: bold; padding: 20px; border-radius: 8px; letter-spacing: 4px; margin: 30px 0;">%s</div>
    <p style="font-size: 14px; color: #999; margin-top: 30px;">Este código expira em 10 minutos.<br>Se você não solicitou este código, ignore este email.</p>
  </div>
</body>
</html>`

const verificationText = `Todo App - Código de Verificação

Use o código abaixo para verificar sua conta:

%s

Este código expira em 10 minutos.
Se você não solicitou este código, ignore este email.
`
